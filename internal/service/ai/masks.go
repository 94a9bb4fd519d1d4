package ai

import (
	"fmt"

	"foodcurator/internal/config"

	"gocv.io/x/gocv"
)

// colorMask is a binary mask for one palette range.
type colorMask struct {
	Range config.ColorRange
	Mask  gocv.Mat
}

func hsvScalar(v config.HSV) gocv.Scalar {
	return gocv.NewScalar(v[0], v[1], v[2], 0)
}

// colorMasks converts img to HSV and returns one mask per palette range, in palette order.
// The caller must close the returned masks.
func colorMasks(img gocv.Mat, palette config.Palette) ([]colorMask, error) {
	if img.Empty() || img.Channels() != 3 {
		return nil, ErrInvalidImage
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, fmt.Errorf("failed to convert image to HSV: %w", err)
	}

	masks := make([]colorMask, 0, palette.Len())
	for _, r := range palette.Ranges() {
		mask := gocv.NewMat()
		gocv.InRangeWithScalar(hsv, hsvScalar(r.Lower), hsvScalar(r.Upper), &mask)
		masks = append(masks, colorMask{Range: r, Mask: mask})
	}
	return masks, nil
}

func closeMasks(masks []colorMask) {
	for _, m := range masks {
		m.Mask.Close()
	}
}
