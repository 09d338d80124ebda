/*
Package engine defines the contract of the image manipulation engine that
consumes the edit plans produced by the resolution pipeline.

The engine is an external collaborator: pixgate hands it an ordered list of
named operations with typed parameters and reads back what the engine
actually produced. Callers must never assume format fidelity, the engine is
free to fall back when it cannot honor a requested encoding.
*/
package engine

// Operation names an edit primitive of the engine.
type Operation string

const (
	OpResize    Operation = "resize"
	OpExtract   Operation = "extract"
	OpSmartCrop Operation = "smartCrop"
	OpComposite Operation = "composite"
	OpRotate    Operation = "rotate"
	OpFlip      Operation = "flip"
	OpFlop      Operation = "flop"
	OpBlur      Operation = "blur"
	OpSharpen   Operation = "sharpen"
	OpTint      Operation = "tint"
	OpFlatten   Operation = "flatten"
	OpGrayscale Operation = "grayscale"
	OpFormat    Operation = "format"
	OpQuality   Operation = "quality"
	OpStrip     Operation = "strip"
)

// Metadata describes a decoded source image.
type Metadata struct {
	Width  int
	Height int

	// Format is the canonical format name of the source.
	Format string

	// Pages is the frame count, above one for animated sources.
	Pages int
}

// Animated reports whether the source carries multiple frames.
func (m Metadata) Animated() bool { return m.Pages > 1 }

// Resize parameters.
type Resize struct {
	Width  int
	Height int
	Fit    string
}

// Region is a crop rectangle in source pixel coordinates.
type Region struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Color is a normalized color value. Alpha is nil when the input carried no
// alpha channel.
type Color struct {
	R     float64
	G     float64
	B     float64
	Alpha *float64
}

// Composite parameters for overlaying a watermark. Left and Top are
// resolved pixel offsets; FromRight and FromBottom mark offsets measured
// from the far edge, where the engine subtracts the overlay size.
type Composite struct {
	URL         string
	Left        int
	Top         int
	FromRight   bool
	FromBottom  bool
	Alpha       float64
	WidthRatio  float64
	HeightRatio float64
}

// Image is one decoded source being edited.
type Image interface {

	// Metadata returns the current dimensions, format and frame count.
	Metadata() Metadata

	// Apply performs one named operation with its typed parameters.
	Apply(op Operation, params any) error

	// Encode produces the output bytes together with the content type the
	// engine actually produced, which may differ from the requested format.
	Encode() (data []byte, contentType string, err error)
}

// Engine decodes source images for editing.
type Engine interface {
	Decode(data []byte) (Image, error)
}
