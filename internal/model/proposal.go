package model

// Proposal is a suggested bounding box stored for an image.
type Proposal struct {
	ID         int64   `json:"id"`
	ImageID    int64   `json:"image_id"`
	Dish       string  `json:"dish"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	CenterX    float64 `json:"center_x"`
	CenterY    float64 `json:"center_y"`
	NormWidth  float64 `json:"norm_width"`
	NormHeight float64 `json:"norm_height"`
	Confidence float64 `json:"confidence"`
}
