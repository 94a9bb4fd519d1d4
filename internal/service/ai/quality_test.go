package ai

import (
	"errors"
	"testing"

	"foodcurator/internal/config"

	"gocv.io/x/gocv"
)

func TestQualityGate_Judge(t *testing.T) {
	gate := NewQualityGate(config.DefaultQualityThresholds())

	tests := []struct {
		name       string
		sharpness  float64
		brightness float64
		expected   bool
	}{
		{"typical frame", 500, 128, true},
		{"brightness at lower bound", 100, 50, true},
		{"brightness just below lower bound", 100, 49.99, false},
		{"brightness at upper bound", 100, 200, true},
		{"brightness just above upper bound", 100, 200.01, false},
		{"sharpness at bound", 100, 128, true},
		{"sharpness just below bound", 99.99, 128, false},
		{"dark and blurry", 10, 20, false},
		{"sharp but overexposed", 5000, 250, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := gate.Judge(tt.sharpness, tt.brightness)
			if verdict.Passed != tt.expected {
				t.Errorf("Judge(%.2f, %.2f).Passed = %v, expected %v", tt.sharpness, tt.brightness, verdict.Passed, tt.expected)
			}
			if verdict.Sharpness != tt.sharpness || verdict.Brightness != tt.brightness {
				t.Errorf("Verdict should carry the measured signals, got %+v", verdict)
			}
		})
	}
}

func TestQualityGate_RejectsFlatGray(t *testing.T) {
	gate := NewQualityGate(config.DefaultQualityThresholds())

	img := solidImage(t, 120, 160, grayLevel(128))
	defer img.Close()

	verdict, err := gate.Evaluate(img)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if verdict.Passed {
		t.Error("Flat gray image should be rejected")
	}
	if verdict.Sharpness > 1e-6 {
		t.Errorf("Expected zero sharpness for flat image, got %f", verdict.Sharpness)
	}
	if verdict.Brightness < 127 || verdict.Brightness > 129 {
		t.Errorf("Expected brightness ~128, got %f", verdict.Brightness)
	}
}

func TestQualityGate_AcceptsSharpPattern(t *testing.T) {
	gate := NewQualityGate(config.DefaultQualityThresholds())

	img := squareGrid(t, 3, 60)
	defer img.Close()

	verdict, err := gate.Evaluate(img)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !verdict.Passed {
		t.Errorf("Expected sharp mid-brightness image to pass, got %+v", verdict)
	}
}

func TestQualityGate_RejectsDarkImage(t *testing.T) {
	gate := NewQualityGate(config.DefaultQualityThresholds())

	img := solidImage(t, 100, 100, grayLevel(20))
	defer img.Close()

	verdict, err := gate.Evaluate(img)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if verdict.Passed {
		t.Error("Dark image should be rejected")
	}
}

func TestQualityGate_InvalidInput(t *testing.T) {
	gate := NewQualityGate(config.DefaultQualityThresholds())

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := gate.Evaluate(empty); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for empty Mat, got %v", err)
	}

	if _, err := gate.EvaluateBytes(nil); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for nil buffer, got %v", err)
	}

	if _, err := gate.EvaluateBytes([]byte("definitely not a jpeg")); err == nil {
		t.Error("Expected error for garbage buffer")
	}
}
