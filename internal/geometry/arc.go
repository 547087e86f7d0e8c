// Package geometry converts ring angles to SVG arc paths.
//
// Angles are in degrees measured clockwise from 12 o'clock, so 0 points
// straight up and 90 points to 3 o'clock.
package geometry

import (
	"math"
	"strconv"
	"strings"
)

// Point is a position in SVG user space (y grows downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ArcPath describes a single circular SVG arc.
type ArcPath struct {
	From     Point   `json:"from"`
	To       Point   `json:"to"`
	Radius   float64 `json:"radius"`
	LargeArc bool    `json:"large_arc"`
	Sweep    bool    `json:"sweep"`
	// Via is set for spans of a full turn, whose endpoints coincide. The
	// path is then drawn as two half arcs through Via.
	Via *Point `json:"via,omitempty"`
}

// PolarToCartesian returns the point at angleDeg on the circle around (cx, cy).
func PolarToCartesian(cx, cy, radius, angleDeg float64) Point {
	rad := (angleDeg - 90) * math.Pi / 180
	return Point{
		X: cx + radius*math.Cos(rad),
		Y: cy + radius*math.Sin(rad),
	}
}

// DescribeArc returns the arc covering [startDeg, endDeg] clockwise.
// The path is emitted from the end point back to the start point with the
// sweep flag unset, which traces the same clockwise span on screen.
// startDeg == endDeg yields a zero-length arc; spans of 360 or more are
// clamped to a full circle.
func DescribeArc(cx, cy, radius, startDeg, endDeg float64) ArcPath {
	if endDeg-startDeg >= 360 {
		endDeg = startDeg + 360
		via := PolarToCartesian(cx, cy, radius, startDeg+180)
		return ArcPath{
			From:     PolarToCartesian(cx, cy, radius, endDeg),
			To:       PolarToCartesian(cx, cy, radius, startDeg),
			Radius:   radius,
			LargeArc: true,
			Via:      &via,
		}
	}
	return ArcPath{
		From:     PolarToCartesian(cx, cy, radius, endDeg),
		To:       PolarToCartesian(cx, cy, radius, startDeg),
		Radius:   radius,
		LargeArc: endDeg-startDeg > 180,
		Sweep:    false,
	}
}

// String renders the path data, e.g. "M 100 50 A 50 50 0 0 0 150 100".
func (a ArcPath) String() string {
	var b strings.Builder
	b.Grow(64)
	b.WriteString("M ")
	b.WriteString(fmtCoord(a.From.X))
	b.WriteByte(' ')
	b.WriteString(fmtCoord(a.From.Y))
	if a.Via != nil {
		a.writeArc(&b, false, *a.Via)
		a.writeArc(&b, false, a.To)
		return b.String()
	}
	a.writeArc(&b, a.LargeArc, a.To)
	return b.String()
}

func (a ArcPath) writeArc(b *strings.Builder, large bool, to Point) {
	b.WriteString(" A ")
	b.WriteString(fmtCoord(a.Radius))
	b.WriteByte(' ')
	b.WriteString(fmtCoord(a.Radius))
	b.WriteString(" 0 ")
	b.WriteString(flag(large))
	b.WriteByte(' ')
	b.WriteString(flag(a.Sweep))
	b.WriteByte(' ')
	b.WriteString(fmtCoord(to.X))
	b.WriteByte(' ')
	b.WriteString(fmtCoord(to.Y))
}

// Circumference returns 2πr.
func Circumference(radius float64) float64 {
	return 2 * math.Pi * radius
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// fmtCoord rounds to three decimals so identical inputs always print identically.
func fmtCoord(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNumber exposes the path number format to other renderers.
func FormatNumber(v float64) string {
	return fmtCoord(v)
}
