package ai

import (
	"foodcurator/internal/config"

	"gocv.io/x/gocv"
)

// UnknownDish is suggested when the palette defines no buckets.
const UnknownDish = "unknown"

// CategorySuggestion is the dominant colour bucket of an image and the dishes it suggests.
type CategorySuggestion struct {
	Bucket    string
	Fraction  float64
	Dishes    []string
	Fractions map[string]float64
}

// CategorySuggestor guesses a dish category from colour statistics.
type CategorySuggestor struct {
	palette config.Palette
}

func NewCategorySuggestor(palette config.Palette) *CategorySuggestor {
	return &CategorySuggestor{palette: palette}
}

// Suggest picks the palette bucket covering the largest fraction of the image.
// Ties go to the bucket defined first, including the all-zero tie of an image
// with no palette colour.
func (s *CategorySuggestor) Suggest(img gocv.Mat) (CategorySuggestion, error) {
	masks, err := colorMasks(img, s.palette)
	if err != nil {
		return CategorySuggestion{}, err
	}
	defer closeMasks(masks)

	total := float64(img.Rows() * img.Cols())
	fractions := make(map[string]float64, len(masks))

	best := -1
	bestFraction := 0.0
	for i, m := range masks {
		fraction := float64(gocv.CountNonZero(m.Mask)) / total
		fractions[m.Range.Name] = fraction
		if best < 0 || fraction > bestFraction {
			best = i
			bestFraction = fraction
		}
	}

	if best < 0 {
		return CategorySuggestion{Dishes: []string{UnknownDish}, Fractions: fractions}, nil
	}

	winner := masks[best].Range
	return CategorySuggestion{
		Bucket:    winner.Name,
		Fraction:  bestFraction,
		Dishes:    winner.Suggestions,
		Fractions: fractions,
	}, nil
}
