package dto

// ImageFilter narrows catalog queries.
type ImageFilter struct {
	Dish      string
	SessionID string
	Status    string
	Limit     int
	Offset    int
}
