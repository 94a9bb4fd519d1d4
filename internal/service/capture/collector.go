package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"time"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/model"
	"foodcurator/internal/service/ai"
	"foodcurator/internal/service/preview"
	"foodcurator/internal/service/storage"

	"gocv.io/x/gocv"
)

// Broadcaster receives annotated frames for live viewers.
type Broadcaster interface {
	Broadcast(frame preview.Frame) bool
}

// Result summarizes one capture session.
type Result struct {
	Session     *storage.Session
	Saved       int
	LowQuality  int
	Rejected    int
	Interrupted bool
}

// Collector runs guided capture sessions.
type Collector struct {
	gate   *ai.QualityGate
	store  *storage.SessionStore
	hub    Broadcaster
	logger *logger.Logger
	now    func() time.Time
}

// NewCollector creates a collector. hub may be nil.
func NewCollector(cfg *config.Config, logger *logger.Logger, store *storage.SessionStore, hub Broadcaster) *Collector {
	return &Collector{
		gate:   ai.NewQualityGate(cfg.Quality),
		store:  store,
		hub:    hub,
		logger: logger,
		now:    time.Now,
	}
}

// Collect prompts for one command per line until target captures are kept:
// an empty line captures a frame, "r" rejects the last capture and "q" quits.
// Frames that fail the quality gate are not saved.
func (c *Collector) Collect(ctx context.Context, source FrameSource, dish string, target int, in *LineReader, out io.Writer) (*Result, error) {
	session, err := c.store.Open(dish)
	if err != nil {
		return nil, err
	}
	result := &Result{Session: session}

	fmt.Fprintf(out, "📷 Collecting %d images for %s\n", target, session.Dish)
	fmt.Fprintln(out, "Press Enter to capture, 'r' to reject the last capture, 'q' to quit")

	for session.Count() < target {
		if err := ctx.Err(); err != nil {
			result.Interrupted = true
			break
		}

		fmt.Fprintf(out, "[%d/%d] > ", session.Count(), target)
		line, ok := in.ReadLine(ctx)
		if !ok {
			result.Interrupted = true
			break
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q":
			result.Interrupted = true
			fmt.Fprintf(out, "Session stopped with %d images\n", session.Count())
			return c.finish(result), nil

		case "r":
			path, err := c.store.RejectLast(session)
			if errors.Is(err, storage.ErrNothingToReject) {
				fmt.Fprintln(out, "Nothing to reject")
				continue
			}
			if err != nil {
				return c.finish(result), err
			}
			result.Rejected++
			fmt.Fprintf(out, "🗑️ Rejected: %s\n", path)

		case "":
			if err := c.captureOne(source, session, target, result, out); err != nil {
				return c.finish(result), err
			}

		default:
			fmt.Fprintln(out, "❌ Unknown command")
		}
	}

	if !result.Interrupted {
		fmt.Fprintf(out, "✅ Session complete: %d images in %s\n", session.Count(), session.Dir)
	}
	return c.finish(result), nil
}

func (c *Collector) finish(result *Result) *Result {
	result.Saved = result.Session.Count()
	c.logger.Info("Capture session %s finished: %d saved, %d low quality, %d rejected",
		result.Session.ID, result.Saved, result.LowQuality, result.Rejected)
	return result
}

func (c *Collector) captureOne(source FrameSource, session *storage.Session, target int, result *Result, out io.Writer) error {
	frame, err := source.Next()
	if err != nil {
		return err
	}
	defer frame.Close()

	verdict, err := c.gate.Evaluate(frame)
	if err != nil {
		return err
	}
	c.broadcast(session, target, frame, verdict)

	if !verdict.Passed {
		result.LowQuality++
		fmt.Fprintf(out, "⚠️  Image quality too low (sharpness %.1f, brightness %.1f), try again\n",
			verdict.Sharpness, verdict.Brightness)
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	path, err := c.store.Save(session, model.CapturedImage{
		Data:      append([]byte(nil), buf.GetBytes()...),
		Timestamp: c.now(),
		SessionID: session.ID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Captured: %s\n", path)
	return nil
}

var (
	overlayGreen = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	overlayRed   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// broadcast sends an annotated copy of frame to live viewers.
func (c *Collector) broadcast(session *storage.Session, target int, frame gocv.Mat, verdict ai.QualityVerdict) {
	if c.hub == nil {
		return
	}

	annotated := frame.Clone()
	defer annotated.Close()

	status, statusColor := "OK", overlayGreen
	if !verdict.Passed {
		status, statusColor = "LOW QUALITY", overlayRed
	}
	gocv.PutText(&annotated, fmt.Sprintf("%s %d/%d", session.Dish, session.Count(), target),
		image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, overlayGreen, 2)
	gocv.PutText(&annotated, status, image.Pt(10, 60), gocv.FontHersheySimplex, 0.6, statusColor, 2)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
	if err != nil {
		c.logger.Warning("Preview frame not encoded: %v", err)
		return
	}
	defer buf.Close()

	if !c.hub.Broadcast(preview.NewFrame(session.ID, session.Dish, session.Count(), target, buf.GetBytes())) {
		c.logger.Warning("Preview queue full, frame dropped")
	}
}
