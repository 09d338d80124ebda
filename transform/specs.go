package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Transformation type names recognized by the extractor and the edit
// mapper.
const (
	TypeResize    = "resize"
	TypeQuality   = "quality"
	TypeFormat    = "format"
	TypeRotate    = "rotate"
	TypeFlip      = "flip"
	TypeFlop      = "flop"
	TypeBlur      = "blur"
	TypeSharpen   = "sharpen"
	TypeTint      = "tint"
	TypeFlatten   = "flatten"
	TypeExtract   = "extract"
	TypeSmartCrop = "smartcrop"
	TypeWatermark = "watermark"
	TypeGrayscale = "grayscale"
	TypeStrip     = "strip"
)

// ResizeParams is the normalized value of a resize transformation.
type ResizeParams struct {
	Width  int
	Height int
	Fit    string
}

type resizeSpec struct{}

func (resizeSpec) Name() string { return TypeResize }

func (resizeSpec) Parse(value any) (any, error) {
	m, err := expectNested(value)
	if err != nil {
		return nil, err
	}

	var p ResizeParams
	if raw, ok := m["width"]; ok {
		if p.Width, err = intInRange(raw, 1, 16384); err != nil {
			return nil, fmt.Errorf("width: %w", err)
		}
	}

	if raw, ok := m["height"]; ok {
		if p.Height, err = intInRange(raw, 1, 16384); err != nil {
			return nil, fmt.Errorf("height: %w", err)
		}
	}

	if p.Width == 0 && p.Height == 0 {
		return nil, fmt.Errorf("resize needs width or height")
	}

	switch m["fit"] {
	case "", "cover", "contain", "fill", "inside", "outside":
		p.Fit = m["fit"]
	default:
		return nil, fmt.Errorf("unknown fit: %q", m["fit"])
	}

	return p, nil
}

type qualitySpec struct{}

func (qualitySpec) Name() string { return TypeQuality }

func (qualitySpec) Parse(value any) (any, error) {
	s, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	return intInRange(s, 1, 100)
}

type formatSpec struct{}

func (formatSpec) Name() string { return TypeFormat }

func (formatSpec) Parse(value any) (any, error) {
	s, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	f, ok := CanonicalFormat(strings.ToLower(s))
	if !ok {
		return nil, fmt.Errorf("unknown format: %q", s)
	}

	return f, nil
}

type rotateSpec struct{}

func (rotateSpec) Name() string { return TypeRotate }

func (rotateSpec) Parse(value any) (any, error) {
	s, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	angle, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("not an angle: %q", s)
	}

	return angle, nil
}

type floatSpec struct {
	name string
}

func (s floatSpec) Name() string { return s.name }

func (s floatSpec) Parse(value any) (any, error) {
	raw, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	return positiveFloat(raw)
}

type flagSpec struct {
	name string
}

func (s flagSpec) Name() string { return s.name }

func (s flagSpec) Parse(value any) (any, error) {
	raw, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	return parseFlag(raw)
}

type colorSpec struct {
	name string
}

func (s colorSpec) Name() string { return s.name }

// Parse accepts a color name, a hex string or a comma separated 3 or 4
// component channel list. The raw form is kept, the edit mapper normalizes
// it into channel values.
func (s colorSpec) Parse(value any) (any, error) {
	raw, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	if raw == "" {
		return nil, fmt.Errorf("empty color")
	}

	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("color needs 3 or 4 channels, got %d", len(parts))
		}

		channels := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil || v < 0 || v > 255 {
				return nil, fmt.Errorf("bad color channel: %q", p)
			}

			channels[i] = v
		}

		return channels, nil
	}

	return raw, nil
}

type extractSpec struct{}

func (extractSpec) Name() string { return TypeExtract }

// Parse reads the two crop corners as a comma separated x1,y1,x2,y2 list.
func (extractSpec) Parse(value any) (any, error) {
	raw, err := expectFlat(value)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(raw, ",")
	corners := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad corner coordinate: %q", p)
		}

		corners = append(corners, v)
	}

	return corners, nil
}

// WatermarkParams is the normalized value of a watermark transformation. X
// and Y are offset expressions: plain pixels like "-10" or a percentage of
// the base dimension like "50p", resolved against the image at apply time.
type WatermarkParams struct {
	URL         string
	X           string
	Y           string
	Alpha       float64
	WidthRatio  float64
	HeightRatio float64
}

var offsetRx = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?p?$`)

type watermarkSpec struct{}

func (watermarkSpec) Name() string { return TypeWatermark }

func (watermarkSpec) Parse(value any) (any, error) {
	m, err := expectNested(value)
	if err != nil {
		return nil, err
	}

	p := WatermarkParams{X: "0", Y: "0", Alpha: 1}
	if p.URL = m["url"]; p.URL == "" {
		return nil, fmt.Errorf("watermark needs a url")
	}

	for _, f := range []struct {
		key string
		dst *string
	}{
		{"x", &p.X},
		{"y", &p.Y},
	} {
		raw, ok := m[f.key]
		if !ok {
			continue
		}

		if !offsetRx.MatchString(raw) {
			return nil, fmt.Errorf("%s: not an offset: %q", f.key, raw)
		}

		*f.dst = raw
	}

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"alpha", &p.Alpha},
		{"wratio", &p.WidthRatio},
		{"hratio", &p.HeightRatio},
	} {
		raw, ok := m[f.key]
		if !ok {
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: not a number: %q", f.key, raw)
		}

		*f.dst = v
	}

	if p.Alpha < 0 || p.Alpha > 1 {
		return nil, fmt.Errorf("alpha %v out of range [0, 1]", p.Alpha)
	}

	return p, nil
}

// DefaultRegistry returns a registry with the specs of every recognized
// transformation type.
func DefaultRegistry() Registry {
	r := make(Registry)
	for _, s := range []Spec{
		resizeSpec{},
		qualitySpec{},
		formatSpec{},
		rotateSpec{},
		flagSpec{name: TypeFlip},
		flagSpec{name: TypeFlop},
		flagSpec{name: TypeGrayscale},
		flagSpec{name: TypeStrip},
		flagSpec{name: TypeSmartCrop},
		floatSpec{name: TypeBlur},
		floatSpec{name: TypeSharpen},
		colorSpec{name: TypeTint},
		colorSpec{name: TypeFlatten},
		extractSpec{},
		watermarkSpec{},
	} {
		r.Register(s)
	}

	return r
}
