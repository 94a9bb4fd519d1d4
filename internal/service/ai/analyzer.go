package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/model"
	"foodcurator/internal/repository"

	"gocv.io/x/gocv"
)

// Analysis is the labeling assistance produced for one image.
type Analysis struct {
	Path        string
	Verdict     QualityVerdict
	Suggestion  CategorySuggestion
	Proposals   []BoundingBoxProposal
	PreviewPath string
	ClassID     int    // -1 gdy żadna sugestia nie należy do słownika
	LabelPath   string // sugerowane etykiety YOLO
	ImageID     int64  // 0 bez katalogu
}

// Analyzer runs the quality gate and, for accepted images, the suggestor,
// the region proposer and the preview renderer.
type Analyzer struct {
	gate         *QualityGate
	suggestor    *CategorySuggestor
	proposer     *RegionProposer
	catalog      config.Catalog
	logger       *logger.Logger
	imageRepo    repository.ImageRepository
	proposalRepo repository.ProposalRepository
}

// NewAnalyzer wires the analysis stages. Repositories may be nil.
func NewAnalyzer(cfg *config.Config, logger *logger.Logger, imageRepo repository.ImageRepository, proposalRepo repository.ProposalRepository) *Analyzer {
	palette := cfg.Catalog.Palette()
	return &Analyzer{
		gate:         NewQualityGate(cfg.Quality),
		suggestor:    NewCategorySuggestor(palette),
		proposer:     NewRegionProposer(palette, cfg.Proposal),
		catalog:      cfg.Catalog,
		logger:       logger,
		imageRepo:    imageRepo,
		proposalRepo: proposalRepo,
	}
}

// AnalyzeFile loads an image from disk and analyzes it.
func (a *Analyzer) AnalyzeFile(path string) (*Analysis, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("%w: cannot read %s", ErrInvalidImage, path)
	}
	defer img.Close()

	return a.Analyze(path, img)
}

// Analyze gates img first; a rejected image gets no suggestions, proposals or preview.
func (a *Analyzer) Analyze(path string, img gocv.Mat) (*Analysis, error) {
	verdict, err := a.gate.Evaluate(img)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{Path: path, Verdict: verdict, ClassID: -1}
	if !verdict.Passed {
		a.logger.Warning("Image %s rejected (brightness %.1f, sharpness %.1f)", filepath.Base(path), verdict.Brightness, verdict.Sharpness)
		return analysis, nil
	}

	if analysis.Suggestion, err = a.suggestor.Suggest(img); err != nil {
		return nil, fmt.Errorf("failed to suggest category: %w", err)
	}

	if analysis.Proposals, err = a.proposer.Propose(img); err != nil {
		return nil, fmt.Errorf("failed to propose regions: %w", err)
	}

	if analysis.PreviewPath, err = SavePreview(path, img, analysis.Proposals, analysis.Suggestion.Dishes); err != nil {
		a.logger.Error("Preview for %s not saved: %v", filepath.Base(path), err)
	}

	analysis.ClassID = a.classFor(analysis.Suggestion.Dishes)
	if analysis.ClassID >= 0 && len(analysis.Proposals) > 0 {
		if analysis.LabelPath, err = SaveLabels(path, analysis.Proposals, analysis.ClassID); err != nil {
			a.logger.Error("Labels for %s not saved: %v", filepath.Base(path), err)
		}
	}

	if err := a.record(analysis); err != nil {
		a.logger.Error("Proposals for %s not saved to database: %v", filepath.Base(path), err)
	}

	a.logger.Info("Analyzed %s: %s, %d proposal(s)", filepath.Base(path), analysis.Suggestion.Bucket, len(analysis.Proposals))
	return analysis, nil
}

// classFor returns the class id of the first suggested dish in the vocabulary.
func (a *Analyzer) classFor(dishes []string) int {
	for _, dish := range dishes {
		if id, ok := a.catalog.ClassID(dish); ok {
			return id
		}
	}
	return -1
}

// record stores the image (if new) and replaces its proposals.
func (a *Analyzer) record(analysis *Analysis) error {
	if a.imageRepo == nil || a.proposalRepo == nil {
		return nil
	}

	dish := ""
	if len(analysis.Suggestion.Dishes) > 0 {
		dish = analysis.Suggestion.Dishes[0]
	}

	existing, err := a.imageRepo.GetByFilePath(analysis.Path)
	if err != nil {
		return err
	}

	var imageID int64
	if existing != nil {
		imageID = existing.ID
		if err := a.proposalRepo.DeleteByImageID(imageID); err != nil {
			return err
		}
	} else {
		img := &model.Image{
			Filename:  filepath.Base(analysis.Path),
			Timestamp: time.Now(),
			FilePath:  analysis.Path,
			Status:    model.StatusAccepted,
		}
		if info, err := os.Stat(analysis.Path); err == nil {
			img.FileSize = info.Size()
			img.Timestamp = info.ModTime()
		}
		if imageID, err = a.imageRepo.Insert(img); err != nil {
			return err
		}
	}
	analysis.ImageID = imageID

	if len(analysis.Proposals) == 0 {
		return nil
	}

	records := make([]model.Proposal, 0, len(analysis.Proposals))
	for _, p := range analysis.Proposals {
		records = append(records, model.Proposal{
			ImageID:    imageID,
			Dish:       dish,
			X:          p.Rect.Min.X,
			Y:          p.Rect.Min.Y,
			Width:      p.Rect.Dx(),
			Height:     p.Rect.Dy(),
			CenterX:    p.CenterX,
			CenterY:    p.CenterY,
			NormWidth:  p.Width,
			NormHeight: p.Height,
			Confidence: p.Confidence,
		})
	}
	return a.proposalRepo.InsertBatch(records)
}
