package model

import "time"

// Image statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// Image represents a curated image record.
type Image struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	SessionID   string    `json:"session_id"`
	Dish        string    `json:"dish"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"filepath"`
	FileSize    int64     `json:"filesize"`
	Fingerprint string    `json:"fingerprint"`
	Status      string    `json:"status"`
}

// CapturedImage is a camera frame that has not been persisted yet.
type CapturedImage struct {
	Data      []byte // zakodowany JPEG
	Timestamp time.Time
	SessionID string
}
