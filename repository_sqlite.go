package main

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// make sure the required table exists
	createQuery := `CREATE TABLE IF NOT EXISTS kv_store (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv_store table: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Get(key string) ([]byte, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (r *SQLiteRepository) Set(key string, value []byte) error {
	query := `INSERT INTO kv_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := r.db.Exec(query, key, string(value))
	return err
}

func (r *SQLiteRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM kv_store WHERE key = ?`, key)
	return err
}

func (r *SQLiteRepository) close() {
	r.db.Close()
}
