package dataset

import (
	"os"
	"path/filepath"
)

// Splits of a YOLO dataset, in the order they are checked.
var Splits = []string{"train", "val", "test"}

// RequiredDirs lists the directories a labeled dataset must contain,
// relative to its root.
func RequiredDirs() []string {
	dirs := make([]string, 0, 2*len(Splits))
	for _, kind := range []string{"images", "labels"} {
		for _, split := range Splits {
			dirs = append(dirs, filepath.Join(kind, split))
		}
	}
	return dirs
}

// ValidateLayout returns the required directories missing under root.
// An empty result means the layout is valid.
func ValidateLayout(root string) []string {
	var missing []string
	for _, dir := range RequiredDirs() {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			missing = append(missing, dir)
		}
	}
	return missing
}

// CreateLayout creates every required directory under root.
func CreateLayout(root string) error {
	for _, dir := range RequiredDirs() {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return err
		}
	}
	return nil
}
