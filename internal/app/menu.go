package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"foodcurator/internal/service/capture"
	"foodcurator/internal/service/dataset"
	"foodcurator/internal/service/planner"
	"foodcurator/internal/service/storage"
)

type menu struct {
	app *App
	in  *capture.LineReader
	out io.Writer
}

type action struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

func newMenu(a *App, in io.Reader, out io.Writer) *menu {
	return &menu{app: a, in: capture.NewLineReader(in), out: out}
}

func (m *menu) actions() []action {
	return []action{
		{"1", "📷 Collect images with camera", m.collect},
		{"2", "🔍 Process collected images", m.dedupe},
		{"3", "🏷️ Get labeling suggestions", m.suggest},
		{"4", "✅ Validate dataset", m.validate},
		{"5", "📊 Generate collection plan", m.plan},
		{"6", "🚪 Exit", nil},
	}
}

func (m *menu) run(ctx context.Context) error {
	actions := m.actions()
	for {
		fmt.Fprintln(m.out, "\n📋 Collection Options:")
		for _, a := range actions {
			fmt.Fprintf(m.out, "%s. %s\n", a.key, a.label)
		}

		choice, ok := m.prompt(ctx, fmt.Sprintf("\nSelect option (1-%d): ", len(actions)))
		if !ok {
			return nil
		}

		selected := findAction(actions, choice)
		if selected == nil {
			fmt.Fprintln(m.out, "❌ Invalid option")
			continue
		}
		if selected.run == nil {
			fmt.Fprintln(m.out, "👋 Collection workflow complete!")
			return nil
		}

		if err := selected.run(ctx); err != nil {
			if errors.Is(err, capture.ErrNoCaptureDevice) {
				return err
			}
			m.app.logger.Error("Option %s failed: %v", selected.key, err)
			fmt.Fprintf(m.out, "❌ %v\n", err)
		}
	}
}

func findAction(actions []action, key string) *action {
	for i := range actions {
		if actions[i].key == key {
			return &actions[i]
		}
	}
	return nil
}

// prompt prints label and reads one trimmed line. It returns false at end of
// input or when ctx is cancelled.
func (m *menu) prompt(ctx context.Context, label string) (string, bool) {
	fmt.Fprint(m.out, label)
	line, ok := m.in.ReadLine(ctx)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (m *menu) collect(ctx context.Context) error {
	dish, ok := m.prompt(ctx, "Enter dish name: ")
	if !ok {
		return nil
	}
	dish = storage.NormalizeDishName(dish)
	if dish == "" {
		return errors.New("dish name is required")
	}

	target := m.app.config.CaptureTarget
	answer, ok := m.prompt(ctx, fmt.Sprintf("Target images (default %d): ", target))
	if !ok {
		return nil
	}
	if answer != "" {
		n, err := strconv.Atoi(answer)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid target %q", answer)
		}
		target = n
	}

	source, err := m.app.openCamera(m.app.config.CameraDevice)
	if err != nil {
		return err
	}
	defer source.Close()

	result, err := m.app.collector().Collect(ctx, source, dish, target, m.in, m.out)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "📊 %d saved, %d below quality, %d rejected\n", result.Saved, result.LowQuality, result.Rejected)
	return nil
}

func (m *menu) dedupe(ctx context.Context) error {
	dir, ok := m.prompt(ctx, "Enter image directory path: ")
	if !ok {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fmt.Fprintln(m.out, "❌ Directory not found")
		return nil
	}

	report, err := m.app.detector.Scan(dir)
	if err != nil {
		return err
	}

	for _, dup := range report.Duplicates {
		if dup.QuarantinedAs != "" {
			fmt.Fprintf(m.out, "🔄 Duplicate found: %s\n", dup.Path)
		}
	}
	fmt.Fprintf(m.out, "📁 Moved %d duplicates to %s\n", report.Moved(), m.app.config.QuarantineDirectory)
	if report.Err != nil {
		fmt.Fprintf(m.out, "⚠️  %d files skipped: %v\n", report.Skipped, report.Err)
	}
	fmt.Fprintln(m.out, "✅ Image processing complete")
	return nil
}

func (m *menu) suggest(ctx context.Context) error {
	path, ok := m.prompt(ctx, "Enter image path for suggestions: ")
	if !ok {
		return nil
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		fmt.Fprintln(m.out, "❌ Image not found")
		return nil
	}

	analysis, err := m.app.analyzer.AnalyzeFile(path)
	if err != nil {
		return err
	}

	if !analysis.Verdict.Passed {
		fmt.Fprintf(m.out, "⚠️  Image rejected by quality gate (sharpness %.1f, brightness %.1f)\n",
			analysis.Verdict.Sharpness, analysis.Verdict.Brightness)
		return nil
	}

	fmt.Fprintf(m.out, "💡 Dish suggestions: %s\n", m.priced(analysis.Suggestion.Dishes))
	fmt.Fprintf(m.out, "📦 Found %d potential bounding boxes\n", len(analysis.Proposals))
	if analysis.PreviewPath != "" {
		fmt.Fprintf(m.out, "🖼️ Preview saved: %s\n", analysis.PreviewPath)
	}
	if analysis.LabelPath != "" {
		fmt.Fprintf(m.out, "🏷️ Suggested labels (class %d) saved: %s\n", analysis.ClassID, analysis.LabelPath)
	}
	m.reportCatalogued(analysis.ImageID)
	return nil
}

// priced lists dishes with their catalog price.
func (m *menu) priced(dishes []string) string {
	parts := make([]string, 0, len(dishes))
	for _, name := range dishes {
		dish, _ := m.app.config.Catalog.Dish(name)
		parts = append(parts, fmt.Sprintf("%s (₹%d)", name, dish.Price))
	}
	return strings.Join(parts, ", ")
}

func (m *menu) reportCatalogued(imageID int64) {
	if m.app.imageRepo == nil || m.app.proposalRepo == nil || imageID == 0 {
		return
	}

	img, err := m.app.imageRepo.GetByID(imageID)
	if err != nil || img == nil {
		m.app.logger.Warning("Catalog entry %d not readable: %v", imageID, err)
		return
	}
	proposals, err := m.app.proposalRepo.GetByImageID(imageID)
	if err != nil {
		m.app.logger.Warning("Proposals of %d not readable: %v", imageID, err)
		return
	}
	fmt.Fprintf(m.out, "🗄️ Catalogued as #%d (%s) with %d proposals\n", img.ID, img.Status, len(proposals))
}

func (m *menu) validate(ctx context.Context) error {
	root, err := m.resolveDataset(ctx)
	if err != nil {
		return err
	}

	if missing := dataset.ValidateLayout(root); len(missing) > 0 {
		fmt.Fprintf(m.out, "❌ Missing directories: %v\n", missing)
		return m.offerScaffold(ctx, root)
	}
	fmt.Fprintln(m.out, "✅ Dataset structure is valid")

	counts, err := m.countSamples(root)
	if err != nil {
		return err
	}

	summary := dataset.Summarize(counts.Counts, m.app.config.Catalog.Vocabulary())
	fmt.Fprintln(m.out, "\n📊 Current dataset stats:")
	fmt.Fprintln(m.out, dataset.RenderTable(summary))
	if counts.Malformed > 0 {
		fmt.Fprintf(m.out, "⚠️  %d malformed label lines skipped\n", counts.Malformed)
	}
	return nil
}

// offerScaffold creates the missing split directories, and a data.yaml for
// the catalog vocabulary when none exists, if the operator agrees.
func (m *menu) offerScaffold(ctx context.Context, root string) error {
	answer, ok := m.prompt(ctx, "Create missing directories? (y/N): ")
	if !ok || !strings.EqualFold(answer, "y") {
		return nil
	}

	if err := dataset.CreateLayout(root); err != nil {
		return err
	}
	manifest, err := dataset.ReadManifest(root)
	if err != nil {
		m.app.logger.Warning("Keeping unreadable %s: %v", dataset.ManifestFile, err)
	} else if manifest == nil {
		if err := dataset.WriteManifest(root, m.app.config.Catalog.Vocabulary()); err != nil {
			return err
		}
		fmt.Fprintf(m.out, "📝 Wrote %s\n", filepath.Join(root, dataset.ManifestFile))
	}
	fmt.Fprintf(m.out, "✅ Dataset structure created in %s\n", root)
	return nil
}

func (m *menu) plan(ctx context.Context) error {
	root, err := m.resolveDataset(ctx)
	if err != nil {
		m.app.logger.Warning("No dataset found, planning from empty counts: %v", err)
		root = m.app.config.DatasetDirectory
	}

	counts, err := m.countSamples(root)
	if err != nil {
		return err
	}

	params := m.app.config.Coverage
	plan := planner.Build(counts.Counts, m.app.config.Catalog, params)
	previous, previousErr := planner.LoadPlan(filepath.Join(root, planner.PlanFile))

	planPath, err := planner.SavePlan(root, plan)
	if err != nil {
		return err
	}
	checklistPath, err := planner.WriteChecklist(root, plan, params)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "📋 Collection plan saved: %s\n", planPath)
	fmt.Fprintf(m.out, "📝 Collection checklist saved: %s\n", checklistPath)
	fmt.Fprintf(m.out, "📊 Total images needed: %d\n", plan.TotalNeeded())
	if previousErr == nil {
		fmt.Fprintf(m.out, "📈 Previous plan needed %d\n", planner.TotalRecorded(previous))
	}
	return nil
}

func (m *menu) resolveDataset(ctx context.Context) (string, error) {
	root, provider, err := m.app.sourceChain().Resolve(ctx)
	if err != nil {
		return "", err
	}
	m.app.logger.Info("Dataset located by %s: %s", provider, root)
	return root, nil
}

// countSamples counts training labels, naming classes from data.yaml when it
// is present and from the catalog otherwise.
func (m *menu) countSamples(root string) (*dataset.SampleCounts, error) {
	catalog := m.app.config.Catalog
	name := dataset.Namer(catalog.ClassName)

	manifest, err := dataset.ReadManifest(root)
	if err != nil {
		m.app.logger.Warning("Ignoring %s: %v", dataset.ManifestFile, err)
	} else if manifest != nil {
		if err := manifest.Validate(); err != nil {
			m.app.logger.Warning("%s: %v", dataset.ManifestFile, err)
		}
		name = func(id int) string {
			if n, ok := manifest.ClassName(id); ok {
				return n
			}
			return catalog.ClassName(id)
		}
	}

	counts, err := dataset.CountSamples(root, name)
	if err != nil {
		return nil, err
	}
	if counts.Err != nil {
		m.app.logger.Warning("Label problems in %s: %v", root, counts.Err)
	}
	return counts, nil
}
