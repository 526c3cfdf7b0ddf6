package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps every collection in one documents table keyed by
// (collection, id) with the record itself as jsonb. Set overwrites the
// whole document (last write wins, no cross-document transactions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(c context.Context, collection string, id string) (json.RawMessage, error) {
	var doc json.RawMessage
	err := s.pool.QueryRow(
		c,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection,
		id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed getting document with error=%w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(c context.Context, collection string, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed marshaling document with error=%w", err)
	}
	_, err = s.pool.Exec(
		c,
		`INSERT INTO documents (collection, id, doc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		collection,
		id,
		raw,
	)
	if err != nil {
		return fmt.Errorf("failed setting document with error=%w", err)
	}
	return nil
}

func (s *PostgresStore) Update(
	c context.Context,
	collection string,
	id string,
	fields map[string]any,
) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed marshaling fields with error=%w", err)
	}
	tag, err := s.pool.Exec(
		c,
		`UPDATE documents
		 SET doc = doc || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection,
		id,
		raw,
	)
	if err != nil {
		return fmt.Errorf("failed updating document with error=%w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(c context.Context, collection string, id string) error {
	_, err := s.pool.Exec(
		c,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed deleting document with error=%w", err)
	}
	return nil
}

func (s *PostgresStore) All(c context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(
		c,
		`SELECT doc FROM documents WHERE collection = $1 ORDER BY created_at`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed listing documents with error=%w", err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed scanning document with error=%w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating documents with error=%w", err)
	}
	return docs, nil
}
