package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	RawCollectionDirectory string // Katalog sesji z kamery
	QuarantineDirectory    string // Duplikaty trafiają tutaj
	DatasetDirectory       string // Zbiór w układzie images/ + labels/
	DatasetInputDirectory  string // Gdzie szukać zbioru jako katalogu lub zip
	DatasetURL             string
	DatasetAPIKey          string
	DatabasePath           string
	CameraDevice           int
	CaptureTarget          int // Domyślna liczba zdjęć na sesję
	FingerprintWorkers     int // Liczba workerów liczących odciski
	PreviewPort            int // 0 = podgląd wyłączony
	LogDirectory           string
	LogMaxSizeMB           int
	LogMaxBackups          int

	Quality  QualityThresholds
	Proposal ProposalParams
	Coverage CoverageParams
	Catalog  Catalog
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	_ = godotenv.Load()

	raw := getEnv("RAW_COLLECTION_DIR", filepath.Join(".", "data", "raw_collection"))

	coverage := DefaultCoverageParams()
	coverage.Target = getEnvAsInt("TARGET_PER_CLASS", coverage.Target)

	return &Config{
		RawCollectionDirectory: raw,
		QuarantineDirectory:    getEnv("QUARANTINE_DIR", filepath.Join(raw, "duplicates")),
		DatasetDirectory:       getEnv("DATASET_DIR", filepath.Join(".", "data", "labeled_dataset")),
		DatasetInputDirectory:  getEnv("DATASET_INPUT_DIR", filepath.Join(".", "data", "input")),
		DatasetURL:             getEnv("DATASET_URL", ""),
		DatasetAPIKey:          getEnv("DATASET_API_KEY", ""),
		DatabasePath:           getEnv("DB_PATH", filepath.Join(".", "data", "catalog.db")),
		CameraDevice:           getEnvAsInt("CAMERA_DEVICE", 0),
		CaptureTarget:          getEnvAsInt("CAPTURE_TARGET", 20),
		FingerprintWorkers:     getEnvAsInt("FINGERPRINT_WORKERS", runtime.NumCPU()),
		PreviewPort:            getEnvAsInt("PREVIEW_PORT", 0),
		LogDirectory:           getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogMaxSizeMB:           getEnvAsInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups:          getEnvAsInt("LOG_MAX_BACKUPS", 3),

		Quality:  DefaultQualityThresholds(),
		Proposal: DefaultProposalParams(),
		Coverage: coverage,
		Catalog:  DefaultCatalog(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
