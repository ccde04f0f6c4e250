package systems

import (
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Point is a world position.
type Point struct {
	X, Y float64
}

// Geometry is what an arrangement may anchor to.
type Geometry struct {
	Width, Height    float64
	ColonyX, ColonyY float64
}

// Arrangement generates exactly n flower positions. Only the random
// arrangement consumes rng; the others are fixed given n and the geometry.
type Arrangement func(n int, g Geometry, rng *rand.Rand) []Point

// Arrangement names.
const (
	ArrangementRandom        = "random"
	ArrangementIndependent   = "independent"
	ArrangementPositive      = "positive"
	ArrangementNegative      = "negative"
	ArrangementPositiveV2    = "positive_v2"
	ArrangementIndependentV2 = "independent_v2"
	ArrangementNegativeV2    = "negative_v2"
)

// Arrangements maps arrangement names to generators.
var Arrangements = map[string]Arrangement{
	ArrangementRandom:        RandomArrangement,
	ArrangementIndependent:   GridArrangement,
	ArrangementPositive:      RingArrangement,
	ArrangementNegative:      listArrangement(negativeLayout),
	ArrangementPositiveV2:    listArrangement(positiveV2Layout),
	ArrangementNegativeV2:    listArrangement(negativeV2Layout),
	ArrangementIndependentV2: TriangleArrangement,
}

// ArrangementNames returns the registered names, sorted.
func ArrangementNames() []string {
	names := make([]string, 0, len(Arrangements))
	for name := range Arrangements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsV2 reports whether the arrangement pins the colony to the bottom of the world.
func IsV2(name string) bool {
	return strings.Contains(name, "v2")
}

// Hand-authored layouts.
var (
	negativeLayout = []Point{
		{150, 100}, {450, 100}, {300, 150}, {100, 300}, {500, 300},
		{150, 500}, {450, 500}, {300, 450}, {200, 300}, {400, 300},
	}
	negativeV2Layout = []Point{
		{100, 100}, {300, 150}, {200, 200},
		{400, 250}, {300, 300}, {500, 350},
		{400, 400}, {600, 450}, {500, 500}, {700, 550},
	}
	positiveV2Layout = []Point{
		{250, 100}, {300, 150}, {350, 200},
		{400, 250}, {450, 300}, {500, 350},
		{550, 400}, {600, 450}, {650, 500}, {700, 550},
	}
)

// RandomArrangement scatters n flowers at uniform integer coordinates.
func RandomArrangement(n int, g Geometry, rng *rand.Rand) []Point {
	if n <= 0 {
		return nil
	}
	out := make([]Point, n)
	for i := range out {
		out[i] = RandomPoint(rng, g.Width, g.Height)
	}
	return out
}

// GridArrangement lays flowers on an evenly spaced grid close to square:
// floor(sqrt(n)) rows, enough columns to hold n, filled row by row.
func GridArrangement(n int, g Geometry, _ *rand.Rand) []Point {
	if n <= 0 {
		return nil
	}
	rows := int(math.Sqrt(float64(n)))
	if rows < 1 {
		rows = 1
	}
	cols := (n + rows - 1) / rows
	xSpacing := float64(int(g.Width) / (cols + 1))
	ySpacing := float64(int(g.Height) / (rows + 1))

	out := make([]Point, 0, n)
	for i := 0; i < rows && len(out) < n; i++ {
		for j := 0; j < cols && len(out) < n; j++ {
			out = append(out, Point{X: float64(j+1) * xSpacing, Y: float64(i+1) * ySpacing})
		}
	}
	return out
}

// RingArrangement spaces n flowers evenly on a circle around the world centre
// with radius a quarter of the smaller world dimension.
func RingArrangement(n int, g Geometry, _ *rand.Rand) []Point {
	if n <= 0 {
		return nil
	}
	radius := float64(int(math.Min(g.Width, g.Height)) / 4)
	cx := float64(int(g.Width) / 2)
	cy := float64(int(g.Height) / 2)
	step := 2 * math.Pi / float64(n)

	out := make([]Point, n)
	for i := range out {
		angle := float64(i) * step
		out[i] = Point{
			X: cx + math.Trunc(radius*math.Cos(angle)),
			Y: cy + math.Trunc(radius*math.Sin(angle)),
		}
	}
	return out
}

// TriangleArrangement builds an inverted triangle of 4, 3 and 2 flowers above
// the colony plus one flower between the triangle tip and the colony.
func TriangleArrangement(n int, g Geometry, _ *rand.Rand) []Point {
	const (
		baseLength = 3
		spacingX   = 150
		spacingY   = 100
	)
	startX := g.ColonyX
	startY := g.ColonyY - 250

	layout := make([]Point, 0, 10)
	for row := 0; row < 3; row++ {
		count := baseLength + 1 - row
		offset := float64((count - 1) * spacingX / 2)
		y := startY - float64((2-row)*spacingY)
		for i := 0; i < count; i++ {
			layout = append(layout, Point{X: startX - offset + float64(i*spacingX), Y: y})
		}
	}
	layout = append(layout, Point{X: startX, Y: startY + spacingY})

	return cycle(layout, n)
}

// listArrangement returns a generator that cycles through a fixed layout.
func listArrangement(layout []Point) Arrangement {
	return func(n int, _ Geometry, _ *rand.Rand) []Point {
		return cycle(layout, n)
	}
}

func cycle(layout []Point, n int) []Point {
	if n <= 0 || len(layout) == 0 {
		return nil
	}
	out := make([]Point, n)
	for i := range out {
		out[i] = layout[i%len(layout)]
	}
	return out
}

// RandomPoint returns integer coordinates in [0,width] x [0,height].
func RandomPoint(rng *rand.Rand, width, height float64) Point {
	return Point{
		X: float64(randIntRange(rng, 0, int(width))),
		Y: float64(randIntRange(rng, 0, int(height))),
	}
}
