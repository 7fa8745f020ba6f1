package db

import "fmt"

func (d *DB) AwardBadge(clientID, badgeID string, sessionCode *string) error {
	_, err := d.conn.Exec(`
		INSERT INTO client_badges (client_id, badge_id, session_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, badge_id) DO NOTHING
	`, clientID, badgeID, sessionCode)
	if err != nil {
		return fmt.Errorf("awarding badge: %w", err)
	}
	return nil
}

func (d *DB) GetClientBadges(clientID string) ([]string, error) {
	rows, err := d.conn.Query(`
		SELECT badge_id FROM client_badges WHERE client_id = $1 ORDER BY awarded_at
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("getting badges: %w", err)
	}
	defer rows.Close()

	var badges []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		badges = append(badges, id)
	}
	return badges, nil
}
