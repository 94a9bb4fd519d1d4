package sqlite

import (
	"fmt"

	"foodcurator/internal/model"
)

// ProposalRepository implements repository.ProposalRepository for SQLite.
type ProposalRepository struct {
	db *DB
}

// NewProposalRepository creates a new SQLite proposal repository.
func NewProposalRepository(db *DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// InsertBatch adds multiple proposals in a single transaction.
func (r *ProposalRepository) InsertBatch(proposals []model.Proposal) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO proposals (image_id, dish, x, y, width, height, center_x, center_y, norm_width, norm_height, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range proposals {
		if _, err := stmt.Exec(p.ImageID, p.Dish, p.X, p.Y, p.Width, p.Height, p.CenterX, p.CenterY, p.NormWidth, p.NormHeight, p.Confidence); err != nil {
			return fmt.Errorf("failed to insert proposal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByImageID retrieves all proposals for a given image, in insertion order.
func (r *ProposalRepository) GetByImageID(imageID int64) ([]model.Proposal, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, image_id, dish, x, y, width, height, center_x, center_y, norm_width, norm_height, confidence
		FROM proposals WHERE image_id = ? ORDER BY id
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		var p model.Proposal
		if err := rows.Scan(&p.ID, &p.ImageID, &p.Dish, &p.X, &p.Y, &p.Width, &p.Height, &p.CenterX, &p.CenterY, &p.NormWidth, &p.NormHeight, &p.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// DeleteByImageID removes all proposals for an image.
func (r *ProposalRepository) DeleteByImageID(imageID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM proposals WHERE image_id = ?`, imageID); err != nil {
		return fmt.Errorf("failed to delete proposals: %w", err)
	}
	return nil
}
