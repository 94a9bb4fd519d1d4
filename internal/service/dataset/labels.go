package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Namer resolves a class id to a class name.
type Namer func(id int) string

// LabelError describes one malformed label line.
type LabelError struct {
	File string
	Line int
	Text string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("%s:%d: malformed label %q", e.File, e.Line, e.Text)
}

// SampleCounts holds per-class annotation counts of one split.
type SampleCounts struct {
	Counts    map[string]int
	Files     int
	Malformed int
	Err       error // błędy linii, które pominięto
}

// CountSamples counts annotations in labels/train/*.txt under root. Each
// non-blank line is `classId x_center y_center width height`; lines that do
// not parse are skipped and reported in Err. A missing labels directory
// yields empty counts.
func CountSamples(root string, name Namer) (*SampleCounts, error) {
	return CountSplit(root, "train", name)
}

// CountSplit counts annotations of any split.
func CountSplit(root, split string, name Namer) (*SampleCounts, error) {
	result := &SampleCounts{Counts: make(map[string]int)}

	files, err := filepath.Glob(filepath.Join(root, "labels", split, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	for _, file := range files {
		if err := countFile(file, name, result); err != nil {
			return nil, err
		}
		result.Files++
	}
	return result, nil
}

func countFile(path string, name Namer, result *SampleCounts) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		id, ok := parseLabelLine(line)
		if !ok {
			result.Malformed++
			result.Err = multierr.Append(result.Err, &LabelError{File: filepath.Base(path), Line: lineNo, Text: line})
			continue
		}
		result.Counts[name(id)]++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// parseLabelLine returns the class id of a YOLO label line.
func parseLabelLine(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return 0, false
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil || id < 0 {
		return 0, false
	}
	for _, f := range fields[1:5] {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return 0, false
		}
	}
	return id, true
}
