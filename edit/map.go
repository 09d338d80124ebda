/*
Package edit translates a resolved transformation list into the ordered
edit plan consumed by the image manipulation engine, and applies the plan
in dependency order.

Mapping performs the structural massaging the engine contract needs: crop
corner pairs become rectangles, colors are normalized into channel values,
watermarks decompose into a source URL plus offsets, format names go
through the canonical table. Application order is not plain list order:
smart cropping must run before any resize, and a resize is deferred behind
crop and composite operations, since cropping or compositing against an
already resized image would invalidate the requested coordinates.
*/
package edit

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/transform"
)

// Edit is one entry of an edit plan.
type Edit struct {
	Op     engine.Operation
	Params any
}

// Plan is the ordered list of edits produced from a transformation list.
type Plan []Edit

// namedColors are the color names accepted for tint and flatten values.
var namedColors = map[string]engine.Color{
	"black":   {R: 0, G: 0, B: 0},
	"white":   {R: 255, G: 255, B: 255},
	"red":     {R: 255, G: 0, B: 0},
	"green":   {R: 0, G: 255, B: 0},
	"blue":    {R: 0, G: 0, B: 255},
	"yellow":  {R: 255, G: 255, B: 0},
	"magenta": {R: 255, G: 0, B: 255},
	"cyan":    {R: 0, G: 255, B: 255},
	"gray":    {R: 128, G: 128, B: 128},
}

func parseHexColor(s string) (engine.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}

	if len(hex) != 6 {
		return engine.Color{}, fmt.Errorf("bad hex color: %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return engine.Color{}, fmt.Errorf("bad hex color: %q", s)
	}

	return engine.Color{
		R: float64(v >> 16 & 0xff),
		G: float64(v >> 8 & 0xff),
		B: float64(v & 0xff),
	}, nil
}

// normalizeColor accepts a color name, a hex string or a channel list and
// returns the engine color value.
func normalizeColor(value any) (engine.Color, error) {
	switch v := value.(type) {
	case string:
		if c, ok := namedColors[strings.ToLower(v)]; ok {
			return c, nil
		}

		if strings.HasPrefix(v, "#") {
			return parseHexColor(v)
		}

		return engine.Color{}, fmt.Errorf("unknown color: %q", v)
	case []float64:
		if len(v) < 3 || len(v) > 4 {
			return engine.Color{}, fmt.Errorf("color needs 3 or 4 channels, got %d", len(v))
		}

		c := engine.Color{R: v[0], G: v[1], B: v[2]}
		if len(v) == 4 {
			alpha := v[3]
			c.Alpha = &alpha
		}

		return c, nil
	default:
		return engine.Color{}, fmt.Errorf("unsupported color value %T", value)
	}
}

// cornersToRegion converts the [x1, y1, x2, y2] corner pair of an extract
// transformation into the rectangle the engine expects.
func cornersToRegion(corners []float64) (engine.Region, bool) {
	if len(corners) != 4 {
		return engine.Region{}, false
	}

	return engine.Region{
		Left:   int(corners[0]),
		Top:    int(corners[1]),
		Width:  int(corners[2] - corners[0]),
		Height: int(corners[3] - corners[1]),
	}, true
}

func mapOne(t transform.Transformation) (Edit, bool) {
	switch t.Type {
	case transform.TypeResize:
		p, ok := t.Value.(transform.ResizeParams)
		if !ok {
			return Edit{}, false
		}

		return Edit{engine.OpResize, engine.Resize{Width: p.Width, Height: p.Height, Fit: p.Fit}}, true

	case transform.TypeQuality:
		q, ok := t.Value.(int)
		if !ok {
			return Edit{}, false
		}

		return Edit{engine.OpQuality, q}, true

	case transform.TypeFormat:
		name, ok := t.Value.(string)
		if !ok {
			return Edit{}, false
		}

		f, ok := transform.CanonicalFormat(strings.ToLower(name))
		if !ok {
			log.Warnf("dropping format edit, unknown format: %q", name)
			return Edit{}, false
		}

		return Edit{engine.OpFormat, f}, true

	case transform.TypeRotate:
		angle, ok := t.Value.(int)
		if !ok {
			return Edit{}, false
		}

		return Edit{engine.OpRotate, angle}, true

	case transform.TypeBlur:
		sigma, ok := t.Value.(float64)
		if !ok {
			return Edit{}, false
		}

		return Edit{engine.OpBlur, sigma}, true

	case transform.TypeSharpen:
		sigma, ok := t.Value.(float64)
		if !ok {
			return Edit{}, false
		}

		return Edit{engine.OpSharpen, sigma}, true

	case transform.TypeFlip, transform.TypeFlop, transform.TypeGrayscale,
		transform.TypeStrip, transform.TypeSmartCrop:
		on, ok := t.Value.(bool)
		if !ok || !on {
			return Edit{}, false
		}

		ops := map[string]engine.Operation{
			transform.TypeFlip:      engine.OpFlip,
			transform.TypeFlop:      engine.OpFlop,
			transform.TypeGrayscale: engine.OpGrayscale,
			transform.TypeStrip:     engine.OpStrip,
			transform.TypeSmartCrop: engine.OpSmartCrop,
		}

		return Edit{ops[t.Type], nil}, true

	case transform.TypeTint, transform.TypeFlatten:
		c, err := normalizeColor(t.Value)
		if err != nil {
			log.Warnf("dropping %s edit: %v", t.Type, err)
			return Edit{}, false
		}

		if t.Type == transform.TypeTint {
			return Edit{engine.OpTint, c}, true
		}

		return Edit{engine.OpFlatten, c}, true

	case transform.TypeExtract:
		corners, ok := t.Value.([]float64)
		if !ok {
			return Edit{}, false
		}

		region, ok := cornersToRegion(corners)
		if !ok {
			// not exactly four corner values, dropped
			return Edit{}, false
		}

		return Edit{engine.OpExtract, region}, true

	case transform.TypeWatermark:
		p, ok := t.Value.(transform.WatermarkParams)
		if !ok {
			return Edit{}, false
		}

		return Edit{engine.OpComposite, p}, true

	default:
		log.Warnf("no edit mapping for transformation type %q", t.Type)
		return Edit{}, false
	}
}

// Map translates the final transformation list into an edit plan, keeping
// the list order. Transformations that cannot be expressed are dropped.
func Map(list []transform.Transformation) Plan {
	plan := make(Plan, 0, len(list))
	for _, t := range list {
		if e, ok := mapOne(t); ok {
			plan = append(plan, e)
		}
	}

	return plan
}
