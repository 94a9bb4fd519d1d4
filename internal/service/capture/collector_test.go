package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/repository/sqlite"
	"foodcurator/internal/service/preview"
	"foodcurator/internal/service/storage"

	"gocv.io/x/gocv"
)

type fakeSource struct {
	frame  gocv.Mat
	reads  int
	failAt int
	closed bool
}

func (f *fakeSource) Next() (gocv.Mat, error) {
	f.reads++
	if f.failAt > 0 && f.reads >= f.failAt {
		return gocv.Mat{}, errors.New("camera unplugged")
	}
	return f.frame.Clone(), nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return f.frame.Close()
}

type recordingHub struct {
	mu     sync.Mutex
	frames []preview.Frame
}

func (h *recordingHub) Broadcast(frame preview.Frame) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, frame)
	return true
}

func sharpFrame(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(70, 70, 70, 0), 400, 400, gocv.MatTypeCV8UC3)
	yellow := color.RGBA{R: 255, G: 255, B: 0, A: 0}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			x, y := 40+col*120, 40+row*120
			if err := gocv.Rectangle(&img, image.Rect(x, y, x+60, y+60), yellow, -1); err != nil {
				t.Fatalf("Failed to draw: %v", err)
			}
		}
	}
	return img
}

func flatFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 200, 200, gocv.MatTypeCV8UC3)
}

func setupCollector(t *testing.T, hub Broadcaster) (*Collector, *sqlite.ImageRepository) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		RawCollectionDirectory: filepath.Join(root, "raw"),
		Quality:                config.DefaultQualityThresholds(),
	}
	log := logger.New(io.Discard, io.Discard, io.Discard)

	db, err := sqlite.New(filepath.Join(root, "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := sqlite.NewImageRepository(db)

	collector := NewCollector(cfg, log, storage.NewSessionStore(cfg, log, repo), hub)
	tick := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	collector.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return collector, repo
}

func script(lines ...string) *LineReader {
	return NewLineReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestCollector_CaptureRejectAndComplete(t *testing.T) {
	hub := &recordingHub{}
	collector, repo := setupCollector(t, hub)
	source := &fakeSource{frame: sharpFrame(t)}
	defer source.Close()

	var out bytes.Buffer
	result, err := collector.Collect(context.Background(), source, "Aloo Paratha", 2, script("", "r", "", "", "never read"), &out)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if result.Saved != 2 || result.Rejected != 1 || result.Interrupted {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.Session.Dish != "aloo_paratha" {
		t.Errorf("Expected normalized dish, got %s", result.Session.Dish)
	}
	if source.reads != 3 {
		t.Errorf("Expected 3 frames read, got %d", source.reads)
	}

	for _, path := range result.Session.Saved() {
		if !strings.HasPrefix(filepath.Base(path), "aloo_paratha_20250102_") {
			t.Errorf("Unexpected capture name %s", path)
		}
		if record, err := repo.GetByFilePath(path); err != nil || record == nil {
			t.Errorf("Capture %s not catalogued: %v", path, err)
		}
	}

	if len(hub.frames) != 3 {
		t.Errorf("Expected 3 preview frames, got %d", len(hub.frames))
	}
	if !strings.Contains(out.String(), "Session complete") {
		t.Errorf("Expected completion message, got:\n%s", out.String())
	}
}

func TestCollector_LowQualityNotSaved(t *testing.T) {
	collector, _ := setupCollector(t, nil)
	source := &fakeSource{frame: flatFrame()}
	defer source.Close()

	var out bytes.Buffer
	result, err := collector.Collect(context.Background(), source, "tea", 5, script("", "", "q"), &out)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if result.Saved != 0 || result.LowQuality != 2 || !result.Interrupted {
		t.Errorf("Unexpected result %+v", result)
	}
	if !strings.Contains(out.String(), "quality too low") {
		t.Errorf("Expected quality warning, got:\n%s", out.String())
	}
}

func TestCollector_RejectWithoutCaptures(t *testing.T) {
	collector, _ := setupCollector(t, nil)
	source := &fakeSource{frame: flatFrame()}
	defer source.Close()

	var out bytes.Buffer
	result, err := collector.Collect(context.Background(), source, "tea", 1, script("r", "x"), &out)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if !result.Interrupted || result.Rejected != 0 {
		t.Errorf("Unexpected result %+v", result)
	}
	if !strings.Contains(out.String(), "Nothing to reject") || !strings.Contains(out.String(), "Unknown command") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestCollector_FrameErrorStopsSession(t *testing.T) {
	collector, _ := setupCollector(t, nil)
	source := &fakeSource{frame: sharpFrame(t), failAt: 2}
	defer source.Close()

	result, err := collector.Collect(context.Background(), source, "poha", 5, script("", ""), io.Discard)
	if err == nil {
		t.Fatal("Expected frame error")
	}
	if errors.Is(err, ErrNoCaptureDevice) {
		t.Error("A read failure should not be reported as a missing device")
	}
	if result == nil || result.Saved != 1 {
		t.Errorf("Expected the first capture to be kept, got %+v", result)
	}
}

func TestCollector_CancelledContext(t *testing.T) {
	collector, _ := setupCollector(t, nil)
	source := &fakeSource{frame: sharpFrame(t)}
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := collector.Collect(ctx, source, "poha", 5, script(""), io.Discard)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if !result.Interrupted || source.reads != 0 {
		t.Errorf("Expected no capture after cancel, got %+v (%d reads)", result, source.reads)
	}
}

func TestCollector_CancelWhileWaitingForInput(t *testing.T) {
	collector, _ := setupCollector(t, nil)
	source := &fakeSource{frame: sharpFrame(t)}
	defer source.Close()

	input, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *Result, 1)
	go func() {
		result, _ := collector.Collect(ctx, source, "poha", 5, NewLineReader(input), io.Discard)
		done <- result
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case result := <-done:
		if result == nil || !result.Interrupted {
			t.Errorf("Expected interrupted session, got %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Collect kept waiting for input after cancel")
	}
}

func TestLineReader_ReadsUntilEOF(t *testing.T) {
	reader := NewLineReader(strings.NewReader("first\n\nlast"))
	ctx := context.Background()

	for _, expected := range []string{"first", "", "last"} {
		line, ok := reader.ReadLine(ctx)
		if !ok || line != expected {
			t.Fatalf("Expected %q, got %q (ok=%v)", expected, line, ok)
		}
	}
	if _, ok := reader.ReadLine(ctx); ok {
		t.Error("Expected end of input")
	}
}

func TestOpenCamera_MissingDevice(t *testing.T) {
	if _, err := OpenCamera(97); !errors.Is(err, ErrNoCaptureDevice) {
		t.Errorf("Expected ErrNoCaptureDevice, got %v", err)
	}
}
