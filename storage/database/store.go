package database

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// collection names
const (
	collStudents   = "students"
	collViolations = "violations"
	collUsers      = "users"
)

// documentStore provides the raw jsonb document operations the typed
// repositories build on.
type documentStore struct {
	db *sqlx.DB
}

func (s documentStore) upsert(collection, id string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	_, err = s.db.Exec(
		`INSERT INTO document (collection, id, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc`,
		collection, id, data,
	)
	return errors.Wrap(err, "upserting document")
}

func (s documentStore) deleteByID(collection string, ids ...string) error {
	_, err := s.db.Exec(
		`DELETE FROM document WHERE collection = $1 AND id = ANY($2)`,
		collection, pq.Array(ids),
	)
	return errors.Wrap(err, "deleting documents")
}

// getWhere fetches a single document matching the extra WHERE clause.
// Returns sql.ErrNoRows when nothing matches; callers map it to their NotFound.
func (s documentStore) getWhere(collection, where string, args ...interface{}) ([]byte, error) {
	var raw []byte
	query := `SELECT doc FROM document WHERE collection = $1 AND ` + where
	qargs := append([]interface{}{collection}, args...)
	if err := s.db.QueryRow(query, qargs...).Scan(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s documentStore) listWhere(collection, where string, args ...interface{}) ([][]byte, error) {
	query := `SELECT doc FROM document WHERE collection = $1`
	if where != "" {
		query += ` AND ` + where
	}
	query += ` ORDER BY id`
	qargs := append([]interface{}{collection}, args...)

	rows, err := s.db.Query(query, qargs...)
	if err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scanning document")
		}
		docs = append(docs, raw)
	}
	return docs, errors.Wrap(rows.Err(), "iterating documents")
}

func (s documentStore) existsWhere(collection, where string, args ...interface{}) (bool, error) {
	var one int
	query := `SELECT 1 FROM document WHERE collection = $1 AND ` + where + ` LIMIT 1`
	qargs := append([]interface{}{collection}, args...)
	err := s.db.QueryRow(query, qargs...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "checking document existence")
	}
	return true, nil
}
