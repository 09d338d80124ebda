package transform

import (
	"fmt"
	"strings"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}

func toStringKeyMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		// yaml decodes nested mappings with untyped keys
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}

			out[s] = val
		}

		return out, true
	}

	return nil, false
}

func mapInt(m map[string]any, key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}

	f, ok := toFloat(v)
	if !ok {
		return 0, false, fmt.Errorf("%s: not a number: %v", key, v)
	}

	return int(f), true, nil
}

func mapFloat(m map[string]any, key string) (float64, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}

	f, ok := toFloat(v)
	if !ok {
		return 0, false, fmt.Errorf("%s: not a number: %v", key, v)
	}

	return f, true, nil
}

func mapString(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}

	s, ok := v.(string)
	return s, ok
}

func toFloatList(v any) ([]float64, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}

	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := toFloat(e)
		if !ok {
			return nil, false
		}

		out[i] = f
	}

	return out, true
}

// NormalizeValue converts a transformation value as decoded from a policy
// record into the canonical typed value the edit mapper consumes. The
// extractor produces these typed values directly; this is the equivalent
// step for policy authored transformations.
func NormalizeValue(typ string, raw any) (any, error) {
	switch typ {
	case TypeResize:
		m, ok := toStringKeyMap(raw)
		if !ok {
			return nil, fmt.Errorf("resize needs a parameter object, got %T", raw)
		}

		var p ResizeParams
		var err error
		if p.Width, _, err = mapInt(m, "width"); err != nil {
			return nil, err
		}

		if p.Height, _, err = mapInt(m, "height"); err != nil {
			return nil, err
		}

		if p.Width == 0 && p.Height == 0 {
			return nil, fmt.Errorf("resize needs width or height")
		}

		p.Fit, _ = mapString(m, "fit")
		return p, nil

	case TypeQuality, TypeRotate:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%s: not a number: %v", typ, raw)
		}

		return int(f), nil

	case TypeFormat:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("format: not a string: %v", raw)
		}

		f, ok := CanonicalFormat(strings.ToLower(s))
		if !ok {
			return nil, fmt.Errorf("unknown format: %q", s)
		}

		return f, nil

	case TypeBlur, TypeSharpen:
		f, ok := toFloat(raw)
		if !ok || f <= 0 {
			return nil, fmt.Errorf("%s: not a positive number: %v", typ, raw)
		}

		return f, nil

	case TypeFlip, TypeFlop, TypeGrayscale, TypeStrip, TypeSmartCrop:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: not a flag: %v", typ, raw)
		}

		return b, nil

	case TypeTint, TypeFlatten:
		if s, ok := raw.(string); ok {
			return s, nil
		}

		if channels, ok := toFloatList(raw); ok {
			if len(channels) < 3 || len(channels) > 4 {
				return nil, fmt.Errorf("color needs 3 or 4 channels, got %d", len(channels))
			}

			return channels, nil
		}

		return nil, fmt.Errorf("%s: not a color: %v", typ, raw)

	case TypeExtract:
		corners, ok := toFloatList(raw)
		if !ok {
			return nil, fmt.Errorf("extract: not a coordinate list: %v", raw)
		}

		return corners, nil

	case TypeWatermark:
		m, ok := toStringKeyMap(raw)
		if !ok {
			return nil, fmt.Errorf("watermark needs a parameter object, got %T", raw)
		}

		p := WatermarkParams{X: "0", Y: "0", Alpha: 1}
		if p.URL, _ = mapString(m, "url"); p.URL == "" {
			return nil, fmt.Errorf("watermark needs a url")
		}

		if x, ok := mapString(m, "x"); ok {
			p.X = x
		} else if f, ok, err := mapFloat(m, "x"); err == nil && ok {
			p.X = fmt.Sprintf("%g", f)
		}

		if y, ok := mapString(m, "y"); ok {
			p.Y = y
		} else if f, ok, err := mapFloat(m, "y"); err == nil && ok {
			p.Y = fmt.Sprintf("%g", f)
		}

		var err error
		if a, ok, e := mapFloat(m, "alpha"); e != nil {
			err = e
		} else if ok {
			p.Alpha = a
		}

		if w, ok, e := mapFloat(m, "wratio"); e != nil {
			err = e
		} else if ok {
			p.WidthRatio = w
		}

		if h, ok, e := mapFloat(m, "hratio"); e != nil {
			err = e
		} else if ok {
			p.HeightRatio = h
		}

		if err != nil {
			return nil, err
		}

		if p.Alpha < 0 || p.Alpha > 1 {
			return nil, fmt.Errorf("alpha %v out of range [0, 1]", p.Alpha)
		}

		return p, nil

	default:
		return nil, fmt.Errorf("unknown transformation type: %q", typ)
	}
}

// NormalizeList normalizes policy authored transformations in place,
// dropping entries whose value cannot be normalized. It returns the kept
// entries and the errors of the dropped ones.
func NormalizeList(list []Transformation) ([]Transformation, []error) {
	var (
		kept []Transformation
		errs []error
	)

	for _, t := range list {
		v, err := NormalizeValue(t.Type, t.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Type, err))
			continue
		}

		t.Value = v
		kept = append(kept, t)
	}

	return kept, errs
}
