package ai

import (
	"fmt"
	"image"
	"math"

	"foodcurator/internal/config"

	"gocv.io/x/gocv"
)

// BoundingBoxProposal is a suggested dish location in YOLO-normalized coordinates.
type BoundingBoxProposal struct {
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
	Confidence float64 // pole konturu / skala, nie prawdopodobieństwo
	Rect       image.Rectangle
}

// YOLOLine formats the proposal as a label line for the given class id.
func (p BoundingBoxProposal) YOLOLine(classID int) string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", classID, p.CenterX, p.CenterY, p.Width, p.Height)
}

// RegionProposer finds food-coloured regions and turns them into box proposals.
type RegionProposer struct {
	palette config.Palette
	params  config.ProposalParams
}

func NewRegionProposer(palette config.Palette, params config.ProposalParams) *RegionProposer {
	return &RegionProposer{palette: palette, params: params}
}

// Propose returns box proposals in contour discovery order.
func (p *RegionProposer) Propose(img gocv.Mat) ([]BoundingBoxProposal, error) {
	foodMask, err := p.FoodMask(img)
	if err != nil {
		return nil, err
	}
	defer foodMask.Close()

	contours := gocv.FindContours(foodMask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var proposals []BoundingBoxProposal
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area <= p.params.MinArea {
			continue
		}

		proposal, ok := p.normalize(gocv.BoundingRect(contour), area, img.Cols(), img.Rows())
		if ok {
			proposals = append(proposals, proposal)
		}
	}

	return proposals, nil
}

// FoodMask unions all palette masks and cleans it with closing then opening.
// The caller must close the returned mask.
func (p *RegionProposer) FoodMask(img gocv.Mat) (gocv.Mat, error) {
	masks, err := colorMasks(img, p.palette)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer closeMasks(masks)

	foodMask := gocv.Zeros(img.Rows(), img.Cols(), gocv.MatTypeCV8U)
	for _, m := range masks {
		gocv.BitwiseOr(foodMask, m.Mask, &foodMask)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(p.params.KernelSize, p.params.KernelSize))
	defer kernel.Close()

	gocv.MorphologyEx(foodMask, &foodMask, gocv.MorphClose, kernel)
	gocv.MorphologyEx(foodMask, &foodMask, gocv.MorphOpen, kernel)

	return foodMask, nil
}

// normalize converts a pixel rectangle to a proposal and reports whether its
// normalized width and height both lie strictly inside (MinExtent, MaxExtent).
func (p *RegionProposer) normalize(rect image.Rectangle, area float64, imgWidth, imgHeight int) (BoundingBoxProposal, bool) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return BoundingBoxProposal{}, false
	}

	w := float64(rect.Dx()) / float64(imgWidth)
	h := float64(rect.Dy()) / float64(imgHeight)

	lo, hi := p.params.MinExtent, p.params.MaxExtent
	if !(w > lo && w < hi && h > lo && h < hi) {
		return BoundingBoxProposal{}, false
	}

	return BoundingBoxProposal{
		CenterX:    (float64(rect.Min.X) + float64(rect.Dx())/2) / float64(imgWidth),
		CenterY:    (float64(rect.Min.Y) + float64(rect.Dy())/2) / float64(imgHeight),
		Width:      w,
		Height:     h,
		Confidence: math.Min(area/p.params.ConfidenceScale, 1.0),
		Rect:       rect,
	}, true
}
