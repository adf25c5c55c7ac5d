package body

// Color is an RGB triple with every channel in [0, 1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// Valid reports whether every channel lies in [0, 1].
func (c Color) Valid() bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 }
	return in(c.R) && in(c.G) && in(c.B)
}

var (
	Black  = Color{}
	White  = Color{R: 1, G: 1, B: 1}
	Red    = Color{R: 1}
	Orange = Color{R: 1, G: 0.5}
	Yellow = Color{R: 1, G: 1}
	Green  = Color{R: 0.5, G: 1}
	Cyan   = Color{G: 1, B: 1}
	Purple = Color{R: 0.5, B: 1}
	Pink   = Color{R: 1, B: 1}
)

// Palette is the ordered set of shape colours used by the sandbox scenarios.
var Palette = []Color{Red, Orange, Yellow, Green, Cyan, Purple, Pink}
