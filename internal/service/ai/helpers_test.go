package ai

import (
	"image"
	"image/color"
	"io"
	"testing"

	"foodcurator/internal/logger"

	"gocv.io/x/gocv"
)

var (
	bgrYellow = gocv.NewScalar(0, 255, 255, 0)
	bgrGreen  = gocv.NewScalar(0, 255, 0, 0)
	bgrWhite  = gocv.NewScalar(255, 255, 255, 0)
	bgrBlack  = gocv.NewScalar(0, 0, 0, 0)

	yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}
)

func solidImage(t *testing.T, rows, cols int, bgr gocv.Scalar) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(bgr, rows, cols, gocv.MatTypeCV8UC3)
	if mat.Empty() {
		t.Fatal("Failed to create test image")
	}
	return mat
}

func grayLevel(v float64) gocv.Scalar {
	return gocv.NewScalar(v, v, v, 0)
}

func fillRect(t *testing.T, mat *gocv.Mat, rect image.Rectangle, c color.RGBA) {
	t.Helper()
	if err := gocv.Rectangle(mat, rect, c, -1); err != nil {
		t.Fatalf("Failed to draw rectangle: %v", err)
	}
}

// squareGrid draws n*n yellow squares of the given side on a dark gray 400x400 background.
func squareGrid(t *testing.T, n, side int) gocv.Mat {
	t.Helper()
	mat := solidImage(t, 400, 400, grayLevel(70))
	step := 400 / n
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			x := col*step + (step-side)/2
			y := row*step + (step-side)/2
			fillRect(t, &mat, image.Rect(x, y, x+side-1, y+side-1), yellow)
		}
	}
	return mat
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, io.Discard, io.Discard)
}
