package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(dbUrl string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	createQuery := `
	  create table if not exists kv_store (
	      key   text primary key,
	      value text not null
	  );`
	if _, err := db.Exec(createQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv_store table: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Get(key string) ([]byte, error) {
	var value string
	query := `select value from kv_store where key=$1;`
	err := r.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (r *PostgresRepository) Set(key string, value []byte) error {
	query := `
	  insert into kv_store (key, value)
	  values ($1, $2)
	  on conflict(key) do update
	     set value = excluded.value;`
	_, err := r.db.Exec(query, key, string(value))
	return err
}

func (r *PostgresRepository) Delete(key string) error {
	_, err := r.db.Exec(`delete from kv_store where key=$1;`, key)
	return err
}

func (r *PostgresRepository) close() {
	r.db.Close()
}
