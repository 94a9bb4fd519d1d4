package config

import "strconv"

// HSV is a colour bound on the OpenCV scale (H 0-180, S and V 0-255).
type HSV [3]float64

// ColorRange is one named food colour bucket and the dishes it usually means.
type ColorRange struct {
	Name        string
	Lower       HSV
	Upper       HSV
	Suggestions []string
}

// Palette is an ordered, read-only list of colour ranges. Order decides ties.
type Palette struct {
	ranges []ColorRange
}

// NewPalette copies ranges into a Palette.
func NewPalette(ranges ...ColorRange) Palette {
	p := Palette{ranges: make([]ColorRange, len(ranges))}
	for i, r := range ranges {
		p.ranges[i] = cloneRange(r)
	}
	return p
}

// Ranges returns a copy of the palette's ranges in definition order.
func (p Palette) Ranges() []ColorRange {
	out := make([]ColorRange, len(p.ranges))
	for i, r := range p.ranges {
		out[i] = cloneRange(r)
	}
	return out
}

func (p Palette) Len() int {
	return len(p.ranges)
}

func cloneRange(r ColorRange) ColorRange {
	r.Suggestions = append([]string(nil), r.Suggestions...)
	return r
}

// DefaultPalette returns the five food colour buckets.
func DefaultPalette() Palette {
	return NewPalette(
		ColorRange{Name: "yellow_foods", Lower: HSV{15, 100, 100}, Upper: HSV{35, 255, 255},
			Suggestions: []string{"dal_tadka", "dal_fry", "turmeric-based dishes"}},
		ColorRange{Name: "brown_foods", Lower: HSV{5, 50, 50}, Upper: HSV{15, 255, 200},
			Suggestions: []string{"roti", "chapati", "paratha", "bread"}},
		ColorRange{Name: "red_foods", Lower: HSV{0, 100, 100}, Upper: HSV{10, 255, 255},
			Suggestions: []string{"rajma", "chole", "tomato curry"}},
		ColorRange{Name: "green_foods", Lower: HSV{40, 50, 50}, Upper: HSV{80, 255, 255},
			Suggestions: []string{"sabzi", "palak dishes", "green vegetables"}},
		ColorRange{Name: "white_foods", Lower: HSV{0, 0, 180}, Upper: HSV{180, 30, 255},
			Suggestions: []string{"rice", "curd", "raita"}},
	)
}

// Dish is a vocabulary entry. Its index in the catalog is its YOLO class id.
type Dish struct {
	Name     string
	Category string
	Price    int
}

const (
	// DefaultDishPrice is used for names outside the price table.
	DefaultDishPrice = 30
	// DefaultDishCategory is used for names outside the vocabulary.
	DefaultDishCategory = "other"
)

// Catalog is the read-only dish vocabulary together with the colour palette.
type Catalog struct {
	dishes  []Dish
	index   map[string]int
	palette Palette
}

// NewCatalog builds a catalog; dish order defines class ids.
func NewCatalog(palette Palette, dishes ...Dish) Catalog {
	c := Catalog{
		dishes:  append([]Dish(nil), dishes...),
		index:   make(map[string]int, len(dishes)),
		palette: palette,
	}
	for i, d := range c.dishes {
		c.index[d.Name] = i
	}
	return c
}

// Vocabulary returns dish names ordered by class id.
func (c Catalog) Vocabulary() []string {
	names := make([]string, len(c.dishes))
	for i, d := range c.dishes {
		names[i] = d.Name
	}
	return names
}

// ClassName maps a class id to its dish name, or class_<id> when unknown.
func (c Catalog) ClassName(id int) string {
	if id >= 0 && id < len(c.dishes) {
		return c.dishes[id].Name
	}
	return "class_" + strconv.Itoa(id)
}

// ClassID maps a dish name to its class id.
func (c Catalog) ClassID(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Dish looks a dish up by name, falling back to default price and category.
func (c Catalog) Dish(name string) (Dish, bool) {
	if i, ok := c.index[name]; ok {
		return c.dishes[i], true
	}
	return Dish{Name: name, Category: DefaultDishCategory, Price: DefaultDishPrice}, false
}

func (c Catalog) Palette() Palette {
	return c.palette
}

// DefaultCatalog returns the 25 mess dishes with their meal category and typical price.
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultPalette(),
		Dish{"aloo_paratha", "breakfast", 25},
		Dish{"plain_paratha", "breakfast", 15},
		Dish{"poha", "breakfast", 20},
		Dish{"upma", "breakfast", 20},
		Dish{"idli", "breakfast", 25},
		Dish{"dosa", "breakfast", 30},
		Dish{"bread_butter", "breakfast", 15},
		Dish{"tea", "beverages", 10},
		Dish{"dal_tadka", "main_course", 40},
		Dish{"dal_fry", "main_course", 35},
		Dish{"rajma", "main_course", 45},
		Dish{"chole", "main_course", 40},
		Dish{"rice", "main_course", 20},
		Dish{"roti", "main_course", 8},
		Dish{"chapati", "main_course", 8},
		Dish{"aloo_sabzi", "main_course", 35},
		Dish{"bhindi_sabzi", "main_course", 40},
		Dish{"paneer_butter_masala", "main_course", 60},
		Dish{"curd", "sides", 15},
		Dish{"pickle", "sides", 10},
		Dish{"coffee", "beverages", 15},
		Dish{"samosa", "snacks", 12},
		Dish{"papad", "sides", 5},
		Dish{"raita", "sides", 20},
		Dish{"salad", "sides", 25},
	)
}

// QualityThresholds bound the accepted brightness and sharpness of a frame.
type QualityThresholds struct {
	MinBrightness float64
	MaxBrightness float64
	MinSharpness  float64
}

func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{MinBrightness: 50, MaxBrightness: 200, MinSharpness: 100}
}

// ProposalParams tune the colour-mask region proposer.
type ProposalParams struct {
	KernelSize      int     // eliptyczny element strukturalny, KernelSize x KernelSize
	MinArea         float64 // px²
	MinExtent       float64 // znormalizowana szerokość/wysokość, granice wyłączone
	MaxExtent       float64
	ConfidenceScale float64 // pole konturu, przy którym pewność = 1
}

func DefaultProposalParams() ProposalParams {
	return ProposalParams{KernelSize: 5, MinArea: 1000, MinExtent: 0.05, MaxExtent: 0.8, ConfidenceScale: 10000}
}

// CoverageParams control the per-class collection plan.
type CoverageParams struct {
	Target      int
	HighBelow   int
	MediumBelow int
}

func DefaultCoverageParams() CoverageParams {
	return CoverageParams{Target: 100, HighBelow: 20, MediumBelow: 50}
}
