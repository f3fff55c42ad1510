// Package sqlite is the persistent collection backend: one database file under
// the storage directory, vectors as little-endian float32 blobs, ranked by
// brute-force cosine similarity.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"voicerag/internal/domain"
	"voicerag/internal/vectorstore"
)

//go:embed schema.sql
var schema string

// DBFile is the database file name inside the storage directory.
const DBFile = "vectors.db"

const collectionDescription = "Document embeddings for RAG"

// Store is a single collection inside a SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	collection string
	dimension  int
}

// Open opens (creating if needed) the database under dir and gets or creates
// the named collection.
func Open(ctx context.Context, dir, collection string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension %d: %w", dimension, domain.ErrInvalidArgument)
	}
	if collection == "" {
		return nil, fmt.Errorf("empty collection name: %w", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, DBFile)+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{db: db, dir: dir, collection: collection, dimension: dimension}
	if err := s.ensureCollection(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimension, description, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		s.collection, s.dimension, collectionDescription, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	var dim int
	if err := s.db.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dim); err != nil {
		return fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	if dim != s.dimension {
		return fmt.Errorf("collection %s stores %d-dimensional vectors, embedder produces %d: %w",
			s.collection, dim, s.dimension, domain.ErrDimensionMismatch)
	}
	return nil
}

func (s *Store) Collection() string { return s.collection }

// Location returns the storage directory.
func (s *Store) Location() string { return s.dir }

// Add inserts records in one transaction. An existing id fails the whole batch.
func (s *Store) Add(ctx context.Context, records []domain.Record) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (collection, id, content, metadata, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("record %s: %w", r.ID, domain.ErrDimensionMismatch)
		}
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, r.ID, r.Text, string(meta), encodeVector(r.Vector)); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Query ranks every record of the collection against vector.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if len(vector) != s.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata, embedding FROM records WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var (
		candidates []domain.SearchResult
		scores     []float64
	)
	for rows.Next() {
		var (
			r        domain.SearchResult
			metadata string
			blob     []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
		}
		if r.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", r.ID, err)
		}
		r.Score = vectorstore.Cosine(vec, vector)
		candidates = append(candidates, r)
		scores = append(scores, r.Score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxs := vectorstore.TopK(scores, k)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, i := range idxs {
		results = append(results, candidates[i])
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

// Drop deletes the collection and its records.
func (s *Store) Drop(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, s.collection); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("embedding blob length is not a multiple of 4")
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// decodeMetadata keeps integral numbers as int64 so chunk indexes survive the round trip.
func decodeMetadata(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			m[k] = i
		} else if f, err := n.Float64(); err == nil {
			m[k] = f
		}
	}
	return m, nil
}
