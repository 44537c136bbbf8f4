// Package geo provides the grid lattice geometry used by ranking scans.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// MinGridSize and MaxGridSize bound the supported lattice dimensions.
	// Sizes must be odd so that a deterministic center cell exists.
	MinGridSize = 3
	MaxGridSize = 11

	// kmPerDegreeLat is the planar approximation of one degree of latitude.
	kmPerDegreeLat = 111.32
)

// Point is a single cell of the scan lattice. Row and col are zero-based,
// row-major from the north-west corner.
type Point struct {
	Row int     `json:"row"`
	Col int     `json:"col"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate returns the point as an orb.Point (lng, lat order).
func (p Point) Coordinate() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// ValidateGridSize reports whether size is a supported lattice dimension.
func ValidateGridSize(size int) error {
	if size < MinGridSize || size > MaxGridSize {
		return fmt.Errorf("grid size %d out of range [%d, %d]", size, MinGridSize, MaxGridSize)
	}
	if size%2 == 0 {
		return fmt.Errorf("grid size %d must be odd", size)
	}
	return nil
}

// Grid generates a size x size lattice of points centered on the given
// coordinate. Spacing is uniform and chosen so the lattice half-diagonal
// equals radiusKm; longitude spacing is corrected by the cosine of the
// center latitude so points are roughly equidistant on the ground.
//
// The function is pure and deterministic: the same inputs always yield the
// same points in the same row-major order, and the center cell
// (size/2, size/2) is exactly the input coordinate.
func Grid(centerLat, centerLng float64, size int, radiusKm float64) ([]Point, error) {
	if err := ValidateGridSize(size); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius %.2f km must be positive", radiusKm)
	}
	if centerLat < -90 || centerLat > 90 || centerLng < -180 || centerLng > 180 {
		return nil, fmt.Errorf("invalid center coordinate (%.6f, %.6f)", centerLat, centerLng)
	}

	// Half-diagonal equals the radius, so the half-side is radius/sqrt(2)
	// and the step between adjacent cells follows from the cell count.
	halfSideKm := radiusKm / math.Sqrt2
	stepKm := 2 * halfSideKm / float64(size-1)

	latStep := stepKm / kmPerDegreeLat
	lngStep := stepKm / (kmPerDegreeLat * math.Cos(centerLat*math.Pi/180))

	half := size / 2
	points := make([]Point, 0, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			lat := centerLat
			lng := centerLng
			// Offsets of zero keep the center cell bit-exact.
			if rowOff := row - half; rowOff != 0 {
				lat = centerLat - float64(rowOff)*latStep
			}
			if colOff := col - half; colOff != 0 {
				lng = centerLng + float64(colOff)*lngStep
			}
			points = append(points, Point{Row: row, Col: col, Lat: lat, Lng: lng})
		}
	}

	return points, nil
}

// Bound returns the bounding box of the lattice, padded by padDegrees on
// every side. Used when archiving scan snapshots for map rendering.
func Bound(points []Point, padDegrees float64) orb.Bound {
	var b orb.Bound
	for i, p := range points {
		if i == 0 {
			b = orb.Bound{Min: p.Coordinate(), Max: p.Coordinate()}
			continue
		}
		b = b.Extend(p.Coordinate())
	}
	if padDegrees > 0 {
		b = b.Pad(padDegrees)
	}
	return b
}
