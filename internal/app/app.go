package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"foodcurator/internal/config"
	"foodcurator/internal/logger"
	"foodcurator/internal/repository"
	"foodcurator/internal/repository/sqlite"
	"foodcurator/internal/service/ai"
	"foodcurator/internal/service/capture"
	"foodcurator/internal/service/dataset"
	"foodcurator/internal/service/preview"
	"foodcurator/internal/service/storage"
)

type App struct {
	config       *config.Config
	logger       *logger.Logger
	db           *sqlite.DB
	imageRepo    repository.ImageRepository
	proposalRepo repository.ProposalRepository
	analyzer     *ai.Analyzer
	detector     *storage.DuplicateDetector
	sessions     *storage.SessionStore
	hubService   *preview.HubService
	openCamera   capture.Opener
}

// NewApp wires the curation services. The catalog database and the preview
// hub are optional: when the database cannot be opened the tool keeps
// working without it.
func NewApp(cfg *config.Config, logger *logger.Logger) *App {
	a := &App{
		config:     cfg,
		logger:     logger,
		openCamera: capture.OpenCamera,
	}

	if cfg.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			logger.Warning("Catalog disabled, cannot create %s: %v", filepath.Dir(cfg.DatabasePath), err)
		} else if db, err := sqlite.New(cfg.DatabasePath); err != nil {
			logger.Warning("Catalog disabled, cannot open %s: %v", cfg.DatabasePath, err)
		} else {
			a.db = db
			a.imageRepo = sqlite.NewImageRepository(db)
			a.proposalRepo = sqlite.NewProposalRepository(db)
		}
	}

	if cfg.PreviewPort > 0 {
		a.hubService = preview.NewHubService(logger)
	}

	a.analyzer = ai.NewAnalyzer(cfg, logger, a.imageRepo, a.proposalRepo)
	a.detector = storage.NewDuplicateDetector(cfg, logger, a.imageRepo)
	a.sessions = storage.NewSessionStore(cfg, logger, a.imageRepo)
	return a
}

// Run starts the optional preview server and serves the menu until the user
// exits, input ends or the capture device is missing.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.hubService != nil {
		go func() {
			if err := a.hubService.Serve(ctx, a.config.PreviewPort); err != nil {
				a.logger.Warning("Preview server stopped: %v", err)
			}
		}()
	}

	fmt.Fprintf(out, "🍛 Food Dataset Collection Workflow\n")
	fmt.Fprintf(out, "📁 Raw captures: %s\n", a.config.RawCollectionDirectory)
	fmt.Fprintf(out, "📁 Dataset: %s\n", a.config.DatasetDirectory)
	if a.db != nil {
		fmt.Fprintf(out, "🗄️ Catalog: %s\n", a.config.DatabasePath)
	}
	if a.hubService != nil {
		fmt.Fprintf(out, "📺 Live preview: ws://localhost:%d/ws\n", a.config.PreviewPort)
	}

	return newMenu(a, in, out).run(ctx)
}

// Close releases the catalog database.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// sourceChain lists where a labeled dataset is looked for, cheapest first.
func (a *App) sourceChain() dataset.Chain {
	return dataset.Chain{
		dataset.LocalDirectory{Dir: a.config.DatasetDirectory},
		dataset.RemoteArchive{
			URL:     a.config.DatasetURL,
			APIKey:  a.config.DatasetAPIKey,
			DestDir: a.config.DatasetDirectory,
		},
		dataset.ZipArchive{
			InputDir: a.config.DatasetInputDirectory,
			DestDir:  a.config.DatasetDirectory,
		},
	}
}

// collector returns a capture collector bound to the preview hub if one runs.
func (a *App) collector() *capture.Collector {
	var hub capture.Broadcaster
	if a.hubService != nil {
		hub = a.hubService
	}
	return capture.NewCollector(a.config, a.logger, a.sessions, hub)
}
