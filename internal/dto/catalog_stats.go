package dto

// CatalogStats contains statistics about catalogued images.
type CatalogStats struct {
	TotalImages    int            `json:"total_images"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	PerDish        map[string]int `json:"per_dish"`
	PerStatus      map[string]int `json:"per_status"`
	Proposals      int            `json:"proposals"`
}
