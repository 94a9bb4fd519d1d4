package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"RAW_COLLECTION_DIR", "QUARANTINE_DIR", "CAPTURE_TARGET", "TARGET_PER_CLASS", "PREVIEW_PORT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.RawCollectionDirectory != filepath.Join(".", "data", "raw_collection") {
		t.Errorf("Unexpected raw directory %s", cfg.RawCollectionDirectory)
	}
	if cfg.QuarantineDirectory != filepath.Join(cfg.RawCollectionDirectory, "duplicates") {
		t.Errorf("Quarantine should default under the raw directory, got %s", cfg.QuarantineDirectory)
	}
	if cfg.CaptureTarget != 20 || cfg.PreviewPort != 0 {
		t.Errorf("Unexpected capture defaults %+v", cfg)
	}
	if cfg.Coverage.Target != 100 || cfg.Quality.MinSharpness != 100 {
		t.Errorf("Unexpected thresholds %+v %+v", cfg.Coverage, cfg.Quality)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("RAW_COLLECTION_DIR", "/tmp/raw")
	t.Setenv("QUARANTINE_DIR", "")
	t.Setenv("CAPTURE_TARGET", "35")
	t.Setenv("TARGET_PER_CLASS", "150")
	t.Setenv("PREVIEW_PORT", "not-a-number")

	cfg := Load()

	if cfg.QuarantineDirectory != filepath.Join("/tmp/raw", "duplicates") {
		t.Errorf("Unexpected quarantine directory %s", cfg.QuarantineDirectory)
	}
	if cfg.CaptureTarget != 35 || cfg.Coverage.Target != 150 {
		t.Errorf("Environment not applied: %+v", cfg)
	}
	if cfg.PreviewPort != 0 {
		t.Errorf("Invalid integers should fall back to the default, got %d", cfg.PreviewPort)
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	vocabulary := catalog.Vocabulary()

	if len(vocabulary) != 25 {
		t.Fatalf("Expected 25 dishes, got %d", len(vocabulary))
	}

	tests := []struct {
		id       int
		expected string
	}{
		{0, "aloo_paratha"},
		{12, "rice"},
		{24, "salad"},
		{25, "class_25"},
		{-1, "class_-1"},
	}
	for _, tt := range tests {
		if got := catalog.ClassName(tt.id); got != tt.expected {
			t.Errorf("ClassName(%d) = %s, expected %s", tt.id, got, tt.expected)
		}
	}

	if dish, ok := catalog.Dish("paneer_butter_masala"); !ok || dish.Category != "main_course" || dish.Price != 60 {
		t.Errorf("Unexpected dish %+v", dish)
	}
	if dish, ok := catalog.Dish("thali"); ok || dish.Price != DefaultDishPrice || dish.Category != DefaultDishCategory {
		t.Errorf("Expected default dish for unknown name, got %+v", dish)
	}
}

func TestPalette_RangesAreCopies(t *testing.T) {
	palette := DefaultPalette()

	ranges := palette.Ranges()
	if len(ranges) != 5 || ranges[0].Name != "yellow_foods" {
		t.Fatalf("Unexpected palette %+v", ranges)
	}

	ranges[0].Suggestions[0] = "changed"
	ranges[0].Lower[0] = 99

	again := palette.Ranges()
	if again[0].Suggestions[0] == "changed" || again[0].Lower[0] == 99 {
		t.Error("Palette should not be mutable through Ranges")
	}
}
