package ai

import (
	"errors"
	"fmt"

	"foodcurator/internal/config"

	"gocv.io/x/gocv"
)

// ErrInvalidImage is returned for empty, undecodable or unsupported images.
var ErrInvalidImage = errors.New("invalid image")

// QualityVerdict holds the measured quality signals of a frame.
type QualityVerdict struct {
	Sharpness  float64 // wariancja Laplasjanu
	Brightness float64 // średnia jasność, 0-255
	Passed     bool
}

// QualityGate rejects blurry, too dark and too bright frames.
type QualityGate struct {
	thresholds config.QualityThresholds
}

func NewQualityGate(thresholds config.QualityThresholds) *QualityGate {
	return &QualityGate{thresholds: thresholds}
}

// Judge applies the thresholds to already measured signals. Boundary values pass.
func (g *QualityGate) Judge(sharpness, brightness float64) QualityVerdict {
	t := g.thresholds
	passed := brightness >= t.MinBrightness &&
		brightness <= t.MaxBrightness &&
		sharpness >= t.MinSharpness

	return QualityVerdict{Sharpness: sharpness, Brightness: brightness, Passed: passed}
}

// Evaluate measures a BGR (or grayscale) image and judges it.
func (g *QualityGate) Evaluate(img gocv.Mat) (QualityVerdict, error) {
	sharpness, brightness, err := measureQuality(img)
	if err != nil {
		return QualityVerdict{}, err
	}
	return g.Judge(sharpness, brightness), nil
}

// EvaluateBytes decodes an encoded image buffer and judges it.
func (g *QualityGate) EvaluateBytes(data []byte) (QualityVerdict, error) {
	if len(data) == 0 {
		return QualityVerdict{}, ErrInvalidImage
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return QualityVerdict{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer mat.Close()

	return g.Evaluate(mat)
}

// measureQuality returns variance of the grayscale Laplacian and mean grayscale intensity.
func measureQuality(img gocv.Mat) (float64, float64, error) {
	gray, err := toGray(img)
	if err != nil {
		return 0, 0, err
	}
	defer gray.Close()

	brightness := gray.Mean().Val1

	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(laplacian, &mean, &stdDev)

	sd := stdDev.GetDoubleAt(0, 0)
	return sd * sd, brightness, nil
}

func toGray(img gocv.Mat) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.Mat{}, ErrInvalidImage
	}

	gray := gocv.NewMat()
	var err error
	switch img.Channels() {
	case 1:
		img.CopyTo(&gray)
	case 3:
		err = gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	case 4:
		err = gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		err = fmt.Errorf("%w: %d channels", ErrInvalidImage, img.Channels())
	}
	if err != nil {
		gray.Close()
		return gocv.Mat{}, fmt.Errorf("failed to convert image to grayscale: %w", err)
	}
	return gray, nil
}
