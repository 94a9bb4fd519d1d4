package sqlite

import (
	"database/sql"
	"fmt"

	"foodcurator/internal/dto"
	"foodcurator/internal/model"
)

const imageColumns = `id, filename, session_id, dish, timestamp, filepath, filesize, fingerprint, status`

// ImageRepository implements repository.ImageRepository for SQLite.
type ImageRepository struct {
	db *DB
}

// NewImageRepository creates a new SQLite image repository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner) (model.Image, error) {
	var img model.Image
	err := row.Scan(&img.ID, &img.Filename, &img.SessionID, &img.Dish, &img.Timestamp,
		&img.FilePath, &img.FileSize, &img.Fingerprint, &img.Status)
	return img, err
}

func statusOrDefault(status string) string {
	if status == "" {
		return model.StatusAccepted
	}
	return status
}

// Insert adds a new image record to the database.
func (r *ImageRepository) Insert(img *model.Image) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO images (filename, session_id, dish, timestamp, filepath, filesize, fingerprint, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, img.Filename, img.SessionID, img.Dish, img.Timestamp, img.FilePath, img.FileSize, img.Fingerprint, statusOrDefault(img.Status))
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch adds images in one transaction, skipping paths that are already catalogued.
// It returns the number of rows actually inserted.
func (r *ImageRepository) InsertBatch(images []model.Image) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO images (filename, session_id, dish, timestamp, filepath, filesize, fingerprint, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, img := range images {
		result, err := stmt.Exec(img.Filename, img.SessionID, img.Dish, img.Timestamp, img.FilePath, img.FileSize, img.Fingerprint, statusOrDefault(img.Status))
		if err != nil {
			return 0, fmt.Errorf("failed to insert image %s: %w", img.Filename, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// GetByID retrieves an image by its ID.
func (r *ImageRepository) GetByID(id int64) (*model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	img, err := scanImage(r.db.Conn().QueryRow(`SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// GetByFilePath retrieves an image by its location on disk.
func (r *ImageRepository) GetByFilePath(path string) (*model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	img, err := scanImage(r.db.Conn().QueryRow(`SELECT `+imageColumns+` FROM images WHERE filepath = ?`, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// GetByFingerprint returns every image sharing a content fingerprint, oldest first.
func (r *ImageRepository) GetByFingerprint(fingerprint string) ([]model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT `+imageColumns+` FROM images WHERE fingerprint = ? ORDER BY id`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

// GetAll retrieves images based on filter criteria.
func (r *ImageRepository) GetAll(filter *dto.ImageFilter) ([]model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if filter == nil {
		filter = &dto.ImageFilter{}
	}

	query := `SELECT ` + imageColumns + ` FROM images WHERE 1=1`
	args := []interface{}{}

	if filter.Dish != "" {
		query += " AND dish = ?"
		args = append(args, filter.Dish)
	}

	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

func collectImages(rows *sql.Rows) ([]model.Image, error) {
	var images []model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetStats returns statistics about catalogued images.
func (r *ImageRepository) GetStats() (*dto.CatalogStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &dto.CatalogStats{
		PerDish:   make(map[string]int),
		PerStatus: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM images`).Scan(&stats.TotalImages, &stats.TotalSizeBytes); err != nil {
		return nil, err
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM proposals`).Scan(&stats.Proposals); err != nil {
		return nil, err
	}

	if err := r.countGrouped(`SELECT dish, COUNT(*) FROM images GROUP BY dish`, stats.PerDish); err != nil {
		return nil, err
	}

	if err := r.countGrouped(`SELECT status, COUNT(*) FROM images GROUP BY status`, stats.PerStatus); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ImageRepository) countGrouped(query string, into map[string]int) error {
	rows, err := r.db.Conn().Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// UpdateLocation records that an image file moved, e.g. into quarantine.
// Unknown paths are ignored.
func (r *ImageRepository) UpdateLocation(oldPath, newPath, status string) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`UPDATE images SET filepath = ?, status = ? WHERE filepath = ?`, newPath, statusOrDefault(status), oldPath)
	if err != nil {
		return fmt.Errorf("failed to update image location: %w", err)
	}
	return nil
}

// DeleteByFilePath removes an image and its proposals.
func (r *ImageRepository) DeleteByFilePath(path string) error {
	r.db.Lock()
	defer r.db.Unlock()

	var imageID int64
	err := r.db.Conn().QueryRow(`SELECT id FROM images WHERE filepath = ?`, path).Scan(&imageID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get image id: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM proposals WHERE image_id = ?`, imageID); err != nil {
		return fmt.Errorf("failed to delete proposals: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM images WHERE id = ?`, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
