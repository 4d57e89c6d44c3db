package store

import (
	"database/sql"
	"errors"
	"time"
)

// CameraStatus represents the operational state of a camera.
type CameraStatus string

const (
	// CameraActive means the camera is registered and streaming.
	CameraActive CameraStatus = "Active"
	// CameraInactive means the camera is registered but not in use.
	CameraInactive CameraStatus = "Inactive"
	// CameraError means the camera source could not be read.
	CameraError CameraStatus = "Error"
)

// Camera represents a registered camera source.
type Camera struct {
	ID        string
	Name      string
	Location  string
	URL       string
	Status    CameraStatus
	FPS       int
	CreatedAt time.Time
}

// CameraRepository provides CRUD operations for cameras.
type CameraRepository struct {
	db *sql.DB
}

// Cameras returns the camera repository for this store.
func (s *Store) Cameras() *CameraRepository {
	return &CameraRepository{db: s.db}
}

// Create inserts a new camera into the database.
func (r *CameraRepository) Create(c *Camera) error {
	if c.Status == "" {
		c.Status = CameraInactive
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
	c.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO cameras (id, name, location, url, status, fps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Location, c.URL, string(c.Status), c.FPS, c.CreatedAt,
	)
	return err
}

// GetByID retrieves a camera by its ID.
func (r *CameraRepository) GetByID(id string) (*Camera, error) {
	c := &Camera{}
	var status string

	err := r.db.QueryRow(
		`SELECT id, name, location, url, status, fps, created_at
		 FROM cameras WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.Location, &c.URL, &status, &c.FPS, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Status = CameraStatus(status)
	return c, nil
}

// GetByURL retrieves a camera by its source URL.
func (r *CameraRepository) GetByURL(url string) (*Camera, error) {
	c := &Camera{}
	var status string

	err := r.db.QueryRow(
		`SELECT id, name, location, url, status, fps, created_at
		 FROM cameras WHERE url = ?`,
		url,
	).Scan(&c.ID, &c.Name, &c.Location, &c.URL, &status, &c.FPS, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Status = CameraStatus(status)
	return c, nil
}

// List retrieves all cameras ordered by creation time, newest first.
func (r *CameraRepository) List() ([]*Camera, error) {
	rows, err := r.db.Query(
		`SELECT id, name, location, url, status, fps, created_at
		 FROM cameras ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		c := &Camera{}
		var status string

		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.URL, &status, &c.FPS, &c.CreatedAt); err != nil {
			return nil, err
		}

		c.Status = CameraStatus(status)
		cameras = append(cameras, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cameras, nil
}

// Update updates an existing camera in the database.
func (r *CameraRepository) Update(c *Camera) error {
	result, err := r.db.Exec(
		`UPDATE cameras SET name = ?, location = ?, url = ?, status = ?, fps = ?
		 WHERE id = ?`,
		c.Name, c.Location, c.URL, string(c.Status), c.FPS, c.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetStatus updates only the status of a camera.
func (r *CameraRepository) SetStatus(id string, status CameraStatus) error {
	result, err := r.db.Exec(`UPDATE cameras SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a camera from the database by its ID.
func (r *CameraRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM cameras WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// CountByStatus returns the number of cameras with the given status.
func (r *CameraRepository) CountByStatus(status CameraStatus) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM cameras WHERE status = ?`, string(status)).Scan(&count)
	return count, err
}
