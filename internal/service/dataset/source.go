package dataset

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrNoProvider is returned when no provider in a chain located a dataset.
	ErrNoProvider = errors.New("no dataset provider succeeded")
	// ErrMissingCredential is returned by providers that need an API key.
	ErrMissingCredential = errors.New("missing credential")
)

// Provider locates a labeled dataset and returns its root directory.
type Provider interface {
	Name() string
	Locate(ctx context.Context) (string, error)
}

// Chain tries providers in order.
type Chain []Provider

// Resolve returns the root found by the first provider that succeeds. When
// every provider fails the returned error wraps ErrNoProvider and each
// provider's failure.
func (c Chain) Resolve(ctx context.Context) (string, string, error) {
	var errs error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		root, err := p.Locate(ctx)
		if err == nil {
			return root, p.Name(), nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", "", multierr.Append(ErrNoProvider, errs)
}

// LocalDirectory is a dataset already present on disk.
type LocalDirectory struct {
	Dir string
}

func (l LocalDirectory) Name() string { return "local directory" }

func (l LocalDirectory) Locate(ctx context.Context) (string, error) {
	info, err := os.Stat(l.Dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", l.Dir)
	}
	if missing := ValidateLayout(l.Dir); len(missing) == len(RequiredDirs()) {
		return "", fmt.Errorf("%s does not look like a dataset", l.Dir)
	}
	return l.Dir, nil
}

// ZipArchive extracts the first .zip archive (by name) of InputDir into DestDir.
type ZipArchive struct {
	InputDir string
	DestDir  string
}

func (z ZipArchive) Name() string { return "zip archive" }

func (z ZipArchive) Locate(ctx context.Context) (string, error) {
	entries, err := os.ReadDir(z.InputDir)
	if err != nil {
		return "", err
	}

	var archives []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			archives = append(archives, e.Name())
		}
	}
	if len(archives) == 0 {
		return "", fmt.Errorf("no zip file in %s", z.InputDir)
	}
	sort.Strings(archives)

	if err := Extract(filepath.Join(z.InputDir, archives[0]), z.DestDir); err != nil {
		return "", err
	}
	return datasetRoot(z.DestDir), nil
}

// RemoteArchive downloads a zip export of the dataset over HTTP.
type RemoteArchive struct {
	URL     string
	APIKey  string
	DestDir string
	Client  *http.Client
}

func (r RemoteArchive) Name() string { return "remote archive" }

func (r RemoteArchive) Locate(ctx context.Context) (string, error) {
	if r.APIKey == "" {
		return "", ErrMissingCredential
	}
	if r.URL == "" {
		return "", errors.New("no dataset url configured")
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}

	if err := os.MkdirAll(r.DestDir, 0755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(r.DestDir, "download-*.zip")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := Extract(tmp.Name(), r.DestDir); err != nil {
		return "", err
	}
	return datasetRoot(r.DestDir), nil
}

// Extract unpacks a zip archive into dest. Entries that would land outside
// dest are rejected.
func Extract(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", archive, err)
	}
	defer zr.Close()

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(destAbs, f.Name)
		if target != destAbs && !strings.HasPrefix(target, destAbs+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// datasetRoot descends into a single wrapping directory, as produced by most
// dataset exports.
func datasetRoot(dir string) string {
	if len(ValidateLayout(dir)) < len(RequiredDirs()) {
		return dir
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
		return dir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return dir
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 1 {
		return filepath.Join(dir, dirs[0])
	}
	return dir
}
