// Package track turns a tile-based level description into a continuous track
// centerline, the geometry backbone for mesh generation, the AI driving line
// and the minimap.
package track

// PathTile is one grid cell of a level's drivable path, addressed by integer
// grid coordinates. SX and SZ are optional span multipliers along each axis;
// zero means omitted and reads as 1, a footprint of exactly one cell.
type PathTile struct {
	GX int     `json:"gx" yaml:"gx"`
	GZ int     `json:"gz" yaml:"gz"`
	SX float64 `json:"sx,omitempty" yaml:"sx,omitempty"`
	SZ float64 `json:"sz,omitempty" yaml:"sz,omitempty"`
}

// Span returns the tile's effective footprint, substituting the default for
// omitted axes. Span defaults are applied here and nowhere else.
func (t PathTile) Span() (sx, sz float64) {
	sx, sz = t.SX, t.SZ
	if sx == 0 {
		sx = 1
	}
	if sz == 0 {
		sz = 1
	}
	return sx, sz
}

// Center returns the tile's footprint center in grid units.
func (t PathTile) Center() (x, z float64) {
	sx, sz := t.Span()
	return float64(t.GX) + sx/2, float64(t.GZ) + sz/2
}

// TileDef is a placed level object: a PathTile footprint plus the model
// reference and rotation the renderer consumes. Only the positional fields
// matter to path building.
type TileDef struct {
	PathTile `yaml:",inline"`

	Model string  `json:"model,omitempty" yaml:"model,omitempty"`
	RotY  float64 `json:"rotY,omitempty" yaml:"rotY,omitempty"`
}

// Point is a 2D world-space coordinate on the ground plane.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Centerline maps an ordered tile sequence to world-space footprint centers,
// one point per tile in input order, scaled by scale world units per grid
// unit. No reordering, filtering or deduplication happens here; the output
// length always equals the input length. Validating scale > 0 is the
// caller's business.
func Centerline(tiles []PathTile, scale float64) []Point {
	points := make([]Point, len(tiles))
	for i, t := range tiles {
		x, z := t.Center()
		points[i] = Point{X: x * scale, Z: z * scale}
	}
	return points
}

// PathTiles projects the positional fields out of a placed-object sequence,
// preserving order.
func PathTiles(defs []TileDef) []PathTile {
	tiles := make([]PathTile, len(defs))
	for i, d := range defs {
		tiles[i] = d.PathTile
	}
	return tiles
}
