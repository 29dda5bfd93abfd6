package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage keeps local data in a single key value table
type SQLiteStorage struct {
	Path string

	db *sql.DB
}

func (s *SQLiteStorage) Init() error {
	db, err := sql.Open("sqlite3", s.Path)
	if nil != err {
		return err
	}
	// One connection, so an in memory database is the same database
	db.SetMaxOpenConns(1)

	initStatement := `
	create table if not exists storage
	  (
		  key text not null primary key,
		  value blob not null
	  );
	`
	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return fmt.Errorf("unable to create storage table: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStorage) Deinit() error {
	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "select value from storage where key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if nil != err {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"insert into storage(key, value) values(?, ?) on conflict(key) do update set value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStorage) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "delete from storage where key = ?", key)
	return err
}
