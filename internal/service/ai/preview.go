package ai

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// confidenceColor goes from red (0) to green (1).
func confidenceColor(confidence float64) color.RGBA {
	return color.RGBA{R: uint8(255 * (1 - confidence)), G: uint8(255 * confidence), B: 0, A: 0}
}

// PreviewPath returns <dir>/<stem>_preview.jpg for an image path.
func PreviewPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_preview.jpg"
}

// DrawPreview draws proposals and the top three dish suggestions onto img in place.
func DrawPreview(img *gocv.Mat, proposals []BoundingBoxProposal, dishes []string) error {
	for i, p := range proposals {
		c := confidenceColor(p.Confidence)
		if err := gocv.Rectangle(img, p.Rect, c, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("Box %d (%.2f)", i+1, p.Confidence)
		if err := gocv.PutText(img, label, image.Pt(p.Rect.Min.X, p.Rect.Min.Y-10), gocv.FontHersheySimplex, 0.6, c, 2); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}

	y := 30
	if err := gocv.PutText(img, "Suggested dishes:", image.Pt(10, y), gocv.FontHersheySimplex, 0.8, white, 2); err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	for i, dish := range dishes {
		if i == 3 {
			break
		}
		y += 30
		if err := gocv.PutText(img, fmt.Sprintf("%d. %s", i+1, dish), image.Pt(10, y), gocv.FontHersheySimplex, 0.6, white, 2); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

// SavePreview draws a labeling preview on a copy of img and writes it next to imagePath.
func SavePreview(imagePath string, img gocv.Mat, proposals []BoundingBoxProposal, dishes []string) (string, error) {
	preview := img.Clone()
	defer preview.Close()

	if err := DrawPreview(&preview, proposals, dishes); err != nil {
		return "", err
	}

	path := PreviewPath(imagePath)
	if ok := gocv.IMWrite(path, preview); !ok {
		return "", fmt.Errorf("failed to write preview %s", path)
	}
	return path, nil
}
