package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LabelPath returns <stem>.txt next to the image.
func LabelPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".txt"
}

// SaveLabels writes one YOLO line per proposal, all under classID, and
// returns the label file path.
func SaveLabels(imagePath string, proposals []BoundingBoxProposal, classID int) (string, error) {
	var b strings.Builder
	for _, p := range proposals {
		b.WriteString(p.YOLOLine(classID))
		b.WriteByte('\n')
	}

	path := LabelPath(imagePath)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write labels %s: %w", path, err)
	}
	return path, nil
}
