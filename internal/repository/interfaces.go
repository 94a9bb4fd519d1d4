package repository

import (
	"foodcurator/internal/dto"
	"foodcurator/internal/model"
)

// ImageRepository defines the interface for image catalog operations.
type ImageRepository interface {
	// Create operations
	Insert(img *model.Image) (int64, error)
	InsertBatch(images []model.Image) (int, error)

	// Read operations
	GetByID(id int64) (*model.Image, error)
	GetByFilePath(path string) (*model.Image, error)
	GetByFingerprint(fingerprint string) ([]model.Image, error)
	GetAll(filter *dto.ImageFilter) ([]model.Image, error)
	GetStats() (*dto.CatalogStats, error)

	// Update operations
	UpdateLocation(oldPath, newPath, status string) error

	// Delete operations
	DeleteByFilePath(path string) error
}

// ProposalRepository defines the interface for bounding box proposal operations.
type ProposalRepository interface {
	InsertBatch(proposals []model.Proposal) error
	GetByImageID(imageID int64) ([]model.Proposal, error)
	DeleteByImageID(imageID int64) error
}
