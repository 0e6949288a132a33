package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wave-portal/internal/models"
)

// Wave is one archived history record
type Wave struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Record drops the archive bookkeeping fields.
func (w Wave) Record() models.Record {
	return models.Record{Sender: w.Sender, Timestamp: w.Timestamp.UTC(), Message: w.Message}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const insertWave = `
	INSERT INTO waves (sender, timestamp, message, session_id)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (sender, timestamp, md5(message)) DO NOTHING
`

// SaveWave archives a record. Records already archived by an earlier run
// are left untouched.
func SaveWave(ctx context.Context, record models.Record, sessionID string) error {
	return saveWave(ctx, DB, record, sessionID)
}

func saveWave(ctx context.Context, db execer, record models.Record, sessionID string) error {
	_, err := db.ExecContext(ctx, insertWave, record.Sender, record.Timestamp.UTC(), record.Message, sessionID)
	if err != nil {
		return fmt.Errorf("failed to save wave: %w", err)
	}
	return nil
}

// GetWaves retrieves archived waves, oldest first
func GetWaves(ctx context.Context, limit, offset int) ([]Wave, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT id, sender, timestamp, message, session_id, created_at
		FROM waves
		ORDER BY timestamp ASC, id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waves []Wave
	for rows.Next() {
		var w Wave
		err := rows.Scan(&w.ID, &w.Sender, &w.Timestamp, &w.Message, &w.SessionID, &w.CreatedAt)
		if err != nil {
			return nil, err
		}
		waves = append(waves, w)
	}
	return waves, rows.Err()
}

// Emitter archives every history record in Postgres
type Emitter struct {
	db        execer
	sessionID string
}

// NewEmitter writes through the connection opened by InitDB.
func NewEmitter(sessionID string) *Emitter {
	return &Emitter{db: DB, sessionID: sessionID}
}

func (e *Emitter) EmitRecord(ctx context.Context, record models.Record) error {
	return saveWave(ctx, e.db, record, e.sessionID)
}
