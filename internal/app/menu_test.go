package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/service/capture"
	"foodcurator/internal/service/dataset"
	"foodcurator/internal/service/planner"

	"gocv.io/x/gocv"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestApp(t *testing.T) (*App, *config.Config) {
	t.Helper()
	root := t.TempDir()
	raw := filepath.Join(root, "raw")

	cfg := &config.Config{
		RawCollectionDirectory: raw,
		QuarantineDirectory:    filepath.Join(raw, "duplicates"),
		DatasetDirectory:       filepath.Join(root, "dataset"),
		DatasetInputDirectory:  filepath.Join(root, "input"),
		DatabasePath:           filepath.Join(root, "db", "catalog.db"),
		CaptureTarget:          2,
		Quality:                config.DefaultQualityThresholds(),
		Proposal:               config.DefaultProposalParams(),
		Coverage:               config.DefaultCoverageParams(),
		Catalog:                config.DefaultCatalog(),
	}

	a := NewApp(cfg, logger.New(io.Discard, io.Discard, io.Discard))
	t.Cleanup(func() { a.Close() })
	return a, cfg
}

func runMenu(t *testing.T, a *App, lines ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := a.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	return out.String(), err
}

func writeLabels(t *testing.T, root, name string, classIDs ...int) {
	t.Helper()
	var b strings.Builder
	for _, id := range classIDs {
		fmt.Fprintf(&b, "%d 0.5 0.5 0.2 0.2\n", id)
	}
	path := filepath.Join(root, "labels", "train", name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

type stillCamera struct {
	frame gocv.Mat
}

func (c *stillCamera) Next() (gocv.Mat, error) { return c.frame.Clone(), nil }

func (c *stillCamera) Close() error { return c.frame.Close() }

func texturedFrame() gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(70, 70, 70, 0), 300, 300, gocv.MatTypeCV8UC3)
	for i := 0; i < 4; i++ {
		x := 30 + i*65
		gocv.Rectangle(&img, image.Rect(x, 100, x+40, 160), color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	}
	return img
}

// ========================================
// Menu Loop Tests
// ========================================

func TestMenu_InvalidChoiceThenExit(t *testing.T) {
	a, _ := setupTestApp(t)

	out, err := runMenu(t, a, "9", "hello", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.Count(out, "Invalid option") != 2 {
		t.Errorf("Expected two invalid option messages, got:\n%s", out)
	}
	if !strings.Contains(out, "Collection workflow complete") {
		t.Errorf("Expected exit message, got:\n%s", out)
	}
}

func TestMenu_EOFExits(t *testing.T) {
	a, _ := setupTestApp(t)

	if _, err := runMenu(t, a); err != nil {
		t.Errorf("Expected clean exit on EOF, got %v", err)
	}
}

func TestMenu_CancelWhileWaitingForInput(t *testing.T) {
	a, _ := setupTestApp(t)

	input, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx, input, io.Discard)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept waiting for input after cancel")
	}
}

func TestMenu_MissingCameraIsFatal(t *testing.T) {
	a, _ := setupTestApp(t)
	a.openCamera = func(int) (capture.FrameSource, error) {
		return nil, fmt.Errorf("%w: device 0", capture.ErrNoCaptureDevice)
	}

	_, err := runMenu(t, a, "1", "poha", "", "6")
	if !errors.Is(err, capture.ErrNoCaptureDevice) {
		t.Errorf("Expected ErrNoCaptureDevice, got %v", err)
	}
}

func TestMenu_ActionErrorsAreNotFatal(t *testing.T) {
	a, _ := setupTestApp(t)

	out, err := runMenu(t, a, "1", "poha", "many", "3", "/does/not/exist.jpg", "4", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, want := range []string{"invalid target", "Image not found", "no dataset provider succeeded", "Collection workflow complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

// ========================================
// Action Tests
// ========================================

func TestMenu_CaptureSession(t *testing.T) {
	a, cfg := setupTestApp(t)
	a.openCamera = func(int) (capture.FrameSource, error) {
		return &stillCamera{frame: texturedFrame()}, nil
	}

	out, err := runMenu(t, a, "1", "Masala Dosa", "", "", "", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "2 saved") {
		t.Errorf("Expected two saved captures, got:\n%s", out)
	}

	sessions, _ := filepath.Glob(filepath.Join(cfg.RawCollectionDirectory, "masala_dosa_session_*"))
	if len(sessions) != 1 {
		t.Fatalf("Expected one session directory, got %v", sessions)
	}
	files, _ := filepath.Glob(filepath.Join(sessions[0], "masala_dosa_*.jpg"))
	if len(files) != 2 {
		t.Errorf("Expected 2 captures, got %v", files)
	}

	stats, err := a.imageRepo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.PerDish["masala_dosa"] != 2 {
		t.Errorf("Expected 2 catalogued captures, got %+v", stats.PerDish)
	}
}

func TestMenu_Dedupe(t *testing.T) {
	a, cfg := setupTestApp(t)
	dir := t.TempDir()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 20, 20, gocv.MatTypeCV8UC3)
	defer img.Close()
	for _, name := range []string{"a.png", "b.png"} {
		if !gocv.IMWrite(filepath.Join(dir, name), img) {
			t.Fatalf("Failed to write %s", name)
		}
	}

	out, err := runMenu(t, a, "2", dir, "2", filepath.Join(dir, "missing"), "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "Moved 1 duplicates") || !strings.Contains(out, "Directory not found") {
		t.Errorf("Unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(cfg.QuarantineDirectory, "b.png")); err != nil {
		t.Errorf("Duplicate not quarantined: %v", err)
	}
}

func TestMenu_SuggestRejectsFlatImage(t *testing.T) {
	a, _ := setupTestApp(t)
	path := filepath.Join(t.TempDir(), "flat.png")

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()
	if !gocv.IMWrite(path, img) {
		t.Fatal("Failed to write image")
	}

	out, err := runMenu(t, a, "3", path, "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "rejected by quality gate") || strings.Contains(out, "Dish suggestions") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestMenu_ValidateAndPlan(t *testing.T) {
	a, cfg := setupTestApp(t)
	root := cfg.DatasetDirectory
	if err := dataset.CreateLayout(root); err != nil {
		t.Fatal(err)
	}

	ids := make([]int, 0, 60)
	for i := 0; i < 60; i++ {
		ids = append(ids, 2) // poha
	}
	writeLabels(t, root, "a.txt", ids...)
	writeLabels(t, root, "b.txt", 12, 12, 12)

	out, err := runMenu(t, a, "4", "5", "5", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "Dataset structure is valid") || !strings.Contains(out, "poha") {
		t.Errorf("Unexpected validate output:\n%s", out)
	}
	if !strings.Contains(out, "Max/Min") && !strings.Contains(out, "MAX/MIN") {
		t.Errorf("Expected imbalance footer:\n%s", out)
	}
	if strings.Count(out, "Previous plan needed") != 1 {
		t.Errorf("Expected previous plan comparison on the second run only:\n%s", out)
	}

	records, err := planner.LoadPlan(filepath.Join(root, planner.PlanFile))
	if err != nil {
		t.Fatalf("Plan not written: %v", err)
	}
	if rec := records["poha"]; rec.Current != 60 || rec.Priority != planner.PriorityLow {
		t.Errorf("Unexpected poha record %+v", rec)
	}
	if rec := records["rice"]; rec.Current != 3 || rec.Needed != 97 || rec.Priority != planner.PriorityHigh {
		t.Errorf("Unexpected rice record %+v", rec)
	}
	if len(records) != 25 {
		t.Errorf("Expected 25 classes below target, got %d", len(records))
	}
	if _, err := os.Stat(filepath.Join(root, planner.ChecklistFile)); err != nil {
		t.Errorf("Checklist not written: %v", err)
	}
}

func TestMenu_ValidateUsesManifestNames(t *testing.T) {
	a, cfg := setupTestApp(t)
	root := cfg.DatasetDirectory
	if err := dataset.CreateLayout(root); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, dataset.ManifestFile), []byte("nc: 1\nnames: [thali]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	writeLabels(t, root, "a.txt", 0, 0, 1)

	out, err := runMenu(t, a, "4", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "thali") || !strings.Contains(out, "plain_paratha") {
		t.Errorf("Expected manifest name and catalog fallback, got:\n%s", out)
	}
}

func TestMenu_ValidateReportsMissingDirectories(t *testing.T) {
	a, cfg := setupTestApp(t)
	if err := os.MkdirAll(filepath.Join(cfg.DatasetDirectory, "images", "train"), 0755); err != nil {
		t.Fatal(err)
	}

	out, err := runMenu(t, a, "4", "n", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "Missing directories") || !strings.Contains(out, "Collection workflow complete") {
		t.Errorf("Expected missing directories, got:\n%s", out)
	}
	if missing := dataset.ValidateLayout(cfg.DatasetDirectory); len(missing) != 5 {
		t.Errorf("Declined scaffold should create nothing, missing %v", missing)
	}
}

func TestMenu_ValidateCreatesMissingLayout(t *testing.T) {
	a, cfg := setupTestApp(t)
	root := cfg.DatasetDirectory
	if err := os.MkdirAll(filepath.Join(root, "images", "train"), 0755); err != nil {
		t.Fatal(err)
	}

	out, err := runMenu(t, a, "4", "y", "4", "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "Dataset structure created") || !strings.Contains(out, "Dataset structure is valid") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	manifest, err := dataset.ReadManifest(root)
	if err != nil || manifest == nil {
		t.Fatalf("Manifest not written: %v", err)
	}
	if manifest.NC != 25 || manifest.Validate() != nil {
		t.Errorf("Unexpected manifest %+v", manifest)
	}
	if name, _ := manifest.ClassName(12); name != "rice" {
		t.Errorf("Expected class 12 to be rice, got %q", name)
	}
}

func TestMenu_SuggestWritesLabels(t *testing.T) {
	a, _ := setupTestApp(t)
	path := filepath.Join(t.TempDir(), "plate.png")

	img := texturedFrame()
	defer img.Close()
	if !gocv.IMWrite(path, img) {
		t.Fatal("Failed to write image")
	}

	out, err := runMenu(t, a, "3", path, "6")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, want := range []string{"rice (₹20)", "Suggested labels (class 12)", "Catalogued as #1 (accepted)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if _, err := os.Stat(strings.TrimSuffix(path, ".png") + ".txt"); err != nil {
		t.Errorf("Label file not written: %v", err)
	}
}
