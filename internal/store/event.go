package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EventStatus represents the lifecycle state of a fall event.
type EventStatus string

const (
	// EventNew is the initial state of every persisted event.
	EventNew EventStatus = "New"
	// EventAcknowledged means an operator has seen and accepted the event.
	EventAcknowledged EventStatus = "Acknowledged"
	// EventFalseAlarm means an operator rejected the event.
	EventFalseAlarm EventStatus = "FalseAlarm"
)

// Severity buckets for fall events, derived from confidence.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Severity thresholds on the averaged detection/pose confidence.
const (
	severityHighMin   = 0.8
	severityMediumMin = 0.6
)

// SeverityForConfidence maps an event confidence to a severity bucket.
func SeverityForConfidence(confidence float64) Severity {
	switch {
	case confidence >= severityHighMin:
		return SeverityHigh
	case confidence >= severityMediumMin:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FallEvent represents a confirmed fall persisted for review.
type FallEvent struct {
	ID           string
	CameraID     string
	Timestamp    time.Time
	Confidence   float64
	Severity     Severity
	Status       EventStatus
	SnapshotPath string
	// Details holds the raw event details (bounding box, pose) as JSON.
	Details string
}

// EventRepository provides operations on fall events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts a new fall event. The status starts as New and severity
// is derived from confidence when unset.
func (r *EventRepository) Create(e *FallEvent) error {
	if e.Status == "" {
		e.Status = EventNew
	}
	if e.Severity == "" {
		e.Severity = SeverityForConfidence(e.Confidence)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Details == "" {
		e.Details = "{}"
	}

	_, err := r.db.Exec(
		`INSERT INTO fall_events (id, camera_id, timestamp, confidence, severity, status, snapshot_path, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CameraID, e.Timestamp, e.Confidence, string(e.Severity), string(e.Status), e.SnapshotPath, e.Details,
	)
	return err
}

// GetByID retrieves a fall event by its ID.
func (r *EventRepository) GetByID(id string) (*FallEvent, error) {
	e := &FallEvent{}
	var severity, status string

	err := r.db.QueryRow(
		`SELECT id, camera_id, timestamp, confidence, severity, status, snapshot_path, details
		 FROM fall_events WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.CameraID, &e.Timestamp, &e.Confidence, &severity, &status, &e.SnapshotPath, &e.Details)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.Severity = Severity(severity)
	e.Status = EventStatus(status)
	return e, nil
}

// ListRecent retrieves the newest events, capped at limit.
func (r *EventRepository) ListRecent(limit int) ([]*FallEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, camera_id, timestamp, confidence, severity, status, snapshot_path, details
		 FROM fall_events ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*FallEvent
	for rows.Next() {
		e := &FallEvent{}
		var severity, status string

		if err := rows.Scan(&e.ID, &e.CameraID, &e.Timestamp, &e.Confidence, &severity, &status, &e.SnapshotPath, &e.Details); err != nil {
			return nil, err
		}

		e.Severity = Severity(severity)
		e.Status = EventStatus(status)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// SetStatus transitions an event's lifecycle state. Only New events can
// transition; acknowledging an already-resolved event is an error.
func (r *EventRepository) SetStatus(id string, status EventStatus) error {
	if status != EventAcknowledged && status != EventFalseAlarm {
		return fmt.Errorf("invalid target status %q", status)
	}

	result, err := r.db.Exec(
		`UPDATE fall_events SET status = ? WHERE id = ? AND status = ?`,
		string(status), id, string(EventNew),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Either the event does not exist or it already left the New state.
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return fmt.Errorf("event %s is not in state %q", id, EventNew)
	}

	return nil
}

// Count returns the total number of persisted events.
func (r *EventRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM fall_events`).Scan(&count)
	return count, err
}

// CountSince returns the number of events newer than the given time.
func (r *EventRepository) CountSince(t time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM fall_events WHERE timestamp > ?`, t).Scan(&count)
	return count, err
}
