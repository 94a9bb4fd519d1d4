package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/model"
	"foodcurator/internal/repository"

	"go.uber.org/multierr"
)

// Duplicate is an image whose pixels match an earlier image in the same scan.
type Duplicate struct {
	Path          string
	Original      string
	QuarantinedAs string
	Fingerprint   Fingerprint
}

// DedupeReport summarizes one duplicate scan.
type DedupeReport struct {
	Scanned    int
	Duplicates []Duplicate
	Skipped    int
	Err        error // połączone błędy pominiętych plików
}

// DuplicateDetector moves exact pixel duplicates into a quarantine directory.
type DuplicateDetector struct {
	quarantineDir string
	numWorkers    int
	logger        *logger.Logger
	imageRepo     repository.ImageRepository
}

// NewDuplicateDetector creates a detector. imageRepo may be nil.
func NewDuplicateDetector(config *config.Config, logger *logger.Logger, imageRepo repository.ImageRepository) *DuplicateDetector {
	return &DuplicateDetector{
		quarantineDir: config.QuarantineDirectory,
		numWorkers:    config.FingerprintWorkers,
		logger:        logger,
		imageRepo:     imageRepo,
	}
}

// Scan walks the images of dir in name order. The first image with a given
// fingerprint stays; every later one is moved to quarantine. Unreadable files
// are skipped and reported in the report's Err.
func (d *DuplicateDetector) Scan(dir string) (*DedupeReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	report := &DedupeReport{}
	seen := make(map[Fingerprint]string)

	for _, result := range FingerprintAll(paths, d.numWorkers) {
		if result.Err != nil {
			d.logger.Warning("Skipping %s: %v", filepath.Base(result.Path), result.Err)
			report.Skipped++
			report.Err = multierr.Append(report.Err, result.Err)
			continue
		}
		report.Scanned++

		original, exists := seen[result.Fingerprint]
		if !exists {
			seen[result.Fingerprint] = result.Path
			continue
		}

		d.logger.Info("Duplicate found: %s (same pixels as %s)", filepath.Base(result.Path), filepath.Base(original))
		report.Duplicates = append(report.Duplicates, Duplicate{Path: result.Path, Original: original, Fingerprint: result.Fingerprint})
	}

	for i := range report.Duplicates {
		dup := &report.Duplicates[i]
		moved, err := d.quarantine(dup.Path, dup.Fingerprint)
		if err != nil {
			d.logger.Error("Error moving duplicate %s: %v", dup.Path, err)
			report.Err = multierr.Append(report.Err, err)
			continue
		}
		dup.QuarantinedAs = moved
	}

	d.logger.Info("Moved %d duplicates from %s", report.Moved(), dir)
	return report, nil
}

// Moved counts duplicates that actually reached quarantine.
func (r *DedupeReport) Moved() int {
	n := 0
	for _, dup := range r.Duplicates {
		if dup.QuarantinedAs != "" {
			n++
		}
	}
	return n
}

// quarantine moves path into the quarantine directory, prefixing the name
// with the fingerprint when the plain name is already taken.
func (d *DuplicateDetector) quarantine(path string, fp Fingerprint) (string, error) {
	if err := os.MkdirAll(d.quarantineDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create quarantine directory: %w", err)
	}

	target := freeName(d.quarantineDir, filepath.Base(path), fp.String()[:8])

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", path, err)
	}

	if d.imageRepo != nil {
		if err := d.imageRepo.UpdateLocation(path, target, model.StatusDuplicate); err != nil {
			d.logger.Error("Error updating catalog for %s: %v", path, err)
		}
	}
	return target, nil
}

// freeName returns dir/name, or dir/<prefix>_name, or dir/<prefix>_<n>_name,
// whichever is the first that does not exist yet.
func freeName(dir, name, prefix string) string {
	target := filepath.Join(dir, name)
	if !exists(target) {
		return target
	}
	target = filepath.Join(dir, prefix+"_"+name)
	for n := 2; exists(target); n++ {
		target = filepath.Join(dir, fmt.Sprintf("%s_%d_%s", prefix, n, name))
	}
	return target
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
