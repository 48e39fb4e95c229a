package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Repository stores the audit log in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository on an open, migrated database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordPropertyChange inserts one property change.
func (r *Repository) RecordPropertyChange(ctx context.Context, change zigbee.PropertyChange) error {
	if change.DeviceID == "" {
		return ErrDeviceIDRequired
	}

	value, err := json.Marshal(change.Value)
	if err != nil {
		return fmt.Errorf("marshalling value: %w", err)
	}
	at := change.Time
	if at.IsZero() {
		at = time.Now()
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO property_changes (device_id, property, value, local, created_at) VALUES (?, ?, ?, ?, ?)",
		change.DeviceID,
		change.Property,
		string(value),
		change.Local,
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("inserting property change: %w", err)
	}
	return nil
}

// RecordEvent inserts one event. Re-recording the same event ID is a no-op.
func (r *Repository) RecordEvent(ctx context.Context, event zigbee.Event) error {
	if event.DeviceID == "" {
		return ErrDeviceIDRequired
	}

	var data sql.NullString
	if event.Data != nil {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("marshalling event data: %w", err)
		}
		data = sql.NullString{String: string(raw), Valid: true}
	}
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO events (event_id, device_id, name, data, created_at) VALUES (?, ?, ?, ?, ?)",
		event.ID,
		event.DeviceID,
		event.Name,
		data,
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// History returns a device's property changes and events, newest first.
// limit defaults to 50 and is capped at 200.
func (r *Repository) History(ctx context.Context, deviceID string, limit int) ([]Entry, error) {
	if deviceID == "" {
		return nil, ErrDeviceIDRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, 'property', device_id, property, value, local, '', created_at
		FROM property_changes WHERE device_id = ?
		UNION ALL
		SELECT id, 'event', device_id, name, data, 0, event_id, created_at
		FROM events WHERE device_id = ?
		ORDER BY 8 DESC, 1 DESC
		LIMIT ?`,
		deviceID, deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e         Entry
			value     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.DeviceID, &e.Name, &value, &e.Local, &e.EventID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if value.Valid {
			e.Value = json.RawMessage(value.String)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than olderThan and returns how many rows
// were removed.
func (r *Repository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := formatTime(time.Now().Add(-olderThan))
	var total int64
	for _, table := range []string{"property_changes", "events"} {
		result, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("pruning %s: %w", table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("checking rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}
