package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"foodcurator/internal/dto"
	"foodcurator/internal/model"
	"foodcurator/internal/repository"
	"foodcurator/internal/repository/sqlite"
	"foodcurator/internal/service/storage"

	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	imagesDir := flag.String("images", "data/raw_collection", "Directory containing captured images")
	dbPath := flag.String("db", "data/catalog.db", "Database path")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of fingerprint workers")
	dish := flag.String("dish", "", "List the most recent catalogued images of this dish after import")
	limit := flag.Int("limit", 20, "Number of images listed with -dish")
	flag.Parse()

	fmt.Printf("Importing images from %s into catalog %s\n", *imagesDir, *dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	images, skipped, err := scan(*imagesDir, *workers)
	if err != nil {
		log.Fatalf("Failed to scan images directory: %v", err)
	}

	if len(images) == 0 {
		fmt.Println("No images found to import")
		return
	}

	repo := sqlite.NewImageRepository(db)
	fmt.Printf("Inserting %d images into catalog...\n", len(images))
	inserted, err := repo.InsertBatch(images)
	if err != nil {
		log.Fatalf("Failed to insert images: %v", err)
	}

	fmt.Printf("✅ Imported %d new images (%d already catalogued)\n", inserted, len(images)-inserted)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (unreadable or errors)\n", skipped)
	}

	stats, err := repo.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Catalog Statistics:\n")
		fmt.Printf("   Total images: %d\n", stats.TotalImages)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		fmt.Printf("   Proposals: %d\n", stats.Proposals)
		fmt.Printf("   Per dish:\n")
		for dish, count := range stats.PerDish {
			fmt.Printf("      - %s: %d images\n", dish, count)
		}
	}

	groups, err := duplicateGroups(repo, images)
	if err != nil {
		log.Printf("⚠️  Duplicate check failed: %v", err)
	}
	if len(groups) > 0 {
		fmt.Printf("\n🔄 %d fingerprints catalogued more than once:\n", len(groups))
		for _, group := range groups {
			for _, img := range group {
				fmt.Printf("      - #%d %s\n", img.ID, img.FilePath)
			}
			fmt.Println()
		}
	}

	if *dish != "" {
		recent, err := recentImages(repo, *dish, *limit)
		if err != nil {
			log.Fatalf("Failed to list %s: %v", *dish, err)
		}
		fmt.Println(renderImages(recent))
	}
}

// duplicateGroups returns, in scan order, every catalogued group of accepted
// images that shares a fingerprint with one of the scanned images.
func duplicateGroups(repo repository.ImageRepository, images []model.Image) ([][]model.Image, error) {
	var groups [][]model.Image
	checked := make(map[string]bool)
	for _, img := range images {
		if img.Fingerprint == "" || checked[img.Fingerprint] {
			continue
		}
		checked[img.Fingerprint] = true

		matches, err := repo.GetByFingerprint(img.Fingerprint)
		if err != nil {
			return groups, err
		}
		var accepted []model.Image
		for _, m := range matches {
			if m.Status == model.StatusAccepted {
				accepted = append(accepted, m)
			}
		}
		if len(accepted) > 1 {
			groups = append(groups, accepted)
		}
	}
	return groups, nil
}

// recentImages returns the newest accepted images of a dish.
func recentImages(repo repository.ImageRepository, dish string, limit int) ([]model.Image, error) {
	return repo.GetAll(&dto.ImageFilter{Dish: dish, Status: model.StatusAccepted, Limit: limit})
}

func renderImages(images []model.Image) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Taken", "File", "Bytes"})
	for _, img := range images {
		t.AppendRow(table.Row{img.ID, img.Timestamp.Format(time.DateTime), img.FilePath, img.FileSize})
	}
	t.AppendFooter(table.Row{"", "", "Listed", len(images)})
	return t.Render()
}

// scan walks dir recursively and builds catalog records for every readable
// image. Quarantined duplicates and labeling previews are left out.
func scan(dir string, numWorkers int) ([]model.Image, int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() && path != dir && entry.Name() == "duplicates" {
			return filepath.SkipDir
		}
		if entry.IsDir() || !storage.IsImageFile(entry.Name()) || strings.HasSuffix(entry.Name(), "_preview.jpg") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	var images []model.Image
	skipped := 0
	for _, result := range storage.FingerprintAll(paths, numWorkers) {
		name := filepath.Base(result.Path)
		if result.Err != nil {
			log.Printf("⚠️  Skipping %s: %v", name, result.Err)
			skipped++
			continue
		}

		info, err := os.Stat(result.Path)
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", name, err)
			skipped++
			continue
		}

		dish, timestamp, err := storage.ParseCaptureFilename(name)
		if err != nil {
			dish, timestamp = "", info.ModTime()
		}

		images = append(images, model.Image{
			Filename:    name,
			Dish:        dish,
			Timestamp:   timestamp.Truncate(time.Microsecond),
			FilePath:    result.Path,
			FileSize:    info.Size(),
			Fingerprint: result.Fingerprint.String(),
			Status:      model.StatusAccepted,
		})
	}
	return images, skipped, nil
}
