package features

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/card-finder-mcp/internal/match"
)

// Matcher kinds understood by New.
const (
	KindFLANN      = "flann"
	KindBruteForce = "bruteforce"
)

// SIFTSource implements match.CorrespondenceSource with OpenCV SIFT
// descriptors and a 2-nearest-neighbor matcher.
//
// OpenCV objects are created per call and closed before returning, so a
// SIFTSource holds no native state and may be shared across goroutines.
type SIFTSource struct {
	kind string
}

// New returns a source using the given matcher kind ("flann" or
// "bruteforce"). An empty kind selects FLANN.
func New(kind string) (*SIFTSource, error) {
	switch kind {
	case "":
		kind = KindFLANN
	case KindFLANN, KindBruteForce:
	default:
		return nil, fmt.Errorf("unknown matcher kind %q", kind)
	}
	return &SIFTSource{kind: kind}, nil
}

// Kind reports the matcher kind in use.
func (s *SIFTSource) Kind() string { return s.kind }

// Correspond extracts SIFT descriptors from both rasters and, for every query
// descriptor, returns the distances to its two nearest reference descriptors.
//
// When either raster has no descriptors, or the reference has fewer than two
// (no second neighbor can exist), the result is empty.
func (s *SIFTSource) Correspond(ctx context.Context, reference, query *image.Gray) ([]match.Candidate, error) {
	refDesc, err := describe(reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	defer refDesc.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryDesc, err := describe(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer queryDesc.Close()

	if refDesc.Empty() || queryDesc.Empty() || refDesc.Rows() < 2 {
		return []match.Candidate{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return toCandidates(s.knnMatch(queryDesc, refDesc)), nil
}

func (s *SIFTSource) knnMatch(query, train gocv.Mat) [][]gocv.DMatch {
	if s.kind == KindBruteForce {
		bf := gocv.NewBFMatcher()
		defer bf.Close()
		return bf.KnnMatch(query, train, 2)
	}
	flann := gocv.NewFlannBasedMatcher()
	defer flann.Close()
	return flann.KnnMatch(query, train, 2)
}

// describe runs SIFT on a grayscale raster and returns the descriptor matrix.
// The caller owns the returned Mat.
func describe(img *image.Gray) (gocv.Mat, error) {
	if img.Bounds().Empty() {
		return gocv.Mat{}, fmt.Errorf("raster is empty: %v", img.Bounds())
	}

	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert raster: %w", err)
	}
	defer mat.Close()

	sift := gocv.NewSIFT()
	defer sift.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	_, desc := sift.DetectAndCompute(mat, mask)
	return desc, nil
}

// toCandidates keeps each neighbor list's distances in nearest-first order.
func toCandidates(knn [][]gocv.DMatch) []match.Candidate {
	out := make([]match.Candidate, 0, len(knn))
	for _, neighbors := range knn {
		d := make([]float64, len(neighbors))
		for i, m := range neighbors {
			d[i] = m.Distance
		}
		out = append(out, match.Candidate{Distances: d})
	}
	return out
}
