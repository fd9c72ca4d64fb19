package bus

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteBus stores every topic in a single append-only SQLite table.
// Insertion order is the autoincrement rowid, so reads reproduce publish
// order exactly. WAL mode lets external observers read while a worker
// appends.
//
// Useful when one durable artifact is preferable to a directory of NDJSON
// files; the contract is identical to FileBus.
type SQLiteBus struct {
	db *sql.DB
}

// OpenSQLite creates or opens the bus database at path.
// Use ":memory:" for an ephemeral bus. Idempotent.
func OpenSQLite(path string) (*SQLiteBus, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("bus: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bus: connect: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under the pipeline's single-writer design.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("bus: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("bus: apply schema: %w", err)
	}

	return &SQLiteBus{db: db}, nil
}

// Publish appends one record to the topic.
func (b *SQLiteBus) Publish(topic string, record any) error {
	line, err := encodeRecord(record)
	if err != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}
	payload := strings.TrimSuffix(string(line), "\n")

	if _, err := b.db.Exec(
		"INSERT INTO records (topic, payload) VALUES (?, ?)", topic, payload,
	); err != nil {
		return fmt.Errorf("bus: append to %s: %w", topic, err)
	}
	return nil
}

// ReadAll returns every record on the topic in insertion order.
func (b *SQLiteBus) ReadAll(topic string) ([]Envelope, error) {
	rows, err := b.db.Query(
		"SELECT payload FROM records WHERE topic = ? ORDER BY id ASC", topic,
	)
	if err != nil {
		return nil, fmt.Errorf("bus: read %s: %w", topic, err)
	}
	defer rows.Close()

	var records []Envelope
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("bus: scan %s: %w", topic, err)
		}
		env, err := decodeLine([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("bus: topic %s: %w", topic, err)
		}
		records = append(records, env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bus: read %s: %w", topic, err)
	}
	return records, nil
}

// Dump returns the topic rendered as NDJSON lines, byte-identical to what a
// FileBus would hold for the same publish sequence.
func (b *SQLiteBus) Dump(topic string) ([]byte, error) {
	rows, err := b.db.Query(
		"SELECT payload FROM records WHERE topic = ? ORDER BY id ASC", topic,
	)
	if err != nil {
		return nil, fmt.Errorf("bus: dump %s: %w", topic, err)
	}
	defer rows.Close()

	var out []byte
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("bus: scan %s: %w", topic, err)
		}
		out = append(out, payload...)
		out = append(out, '\n')
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bus: dump %s: %w", topic, err)
	}
	return out, nil
}

// Topics lists every topic with at least one record, sorted.
func (b *SQLiteBus) Topics() ([]string, error) {
	rows, err := b.db.Query("SELECT DISTINCT topic FROM records ORDER BY topic ASC")
	if err != nil {
		return nil, fmt.Errorf("bus: list topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("bus: list topics: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bus: list topics: %w", err)
	}
	return topics, nil
}

// Close closes the underlying database.
func (b *SQLiteBus) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
