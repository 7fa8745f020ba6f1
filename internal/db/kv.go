package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
)

func (d *DB) GetValue(key string) (string, error) {
	var value string
	err := d.conn.QueryRow(`
		SELECT value FROM best_scores WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("getting value %s: %w", key, err)
	}
	return value, nil
}

func (d *DB) SetValue(key, value string) error {
	_, err := d.conn.Exec(`
		INSERT INTO best_scores (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting value %s: %w", key, err)
	}
	return nil
}

// KVStore adapts the best_scores table to the ledger's storage capability.
type KVStore struct {
	db *DB
}

func NewKVStore(database *DB) *KVStore {
	return &KVStore{db: database}
}

func (s *KVStore) Get(key string) (string, bool) {
	v, err := s.db.GetValue(key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[DB] reading %s: %v\n", key, err)
		}
		return "", false
	}
	return v, true
}

func (s *KVStore) Set(key, value string) error {
	return s.db.SetValue(key, value)
}
