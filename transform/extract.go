package transform

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Spec parses and validates the query parameter value of one transformation
// type. Implementations receive either a raw string, for flat parameters
// like quality=80, or a map of raw strings for dot-notated ones like
// resize.width=200.
type Spec interface {

	// Name returns the transformation type the spec is registered for.
	Name() string

	// Parse validates the raw value and returns the normalized one.
	Parse(value any) (any, error)
}

// Registry maps transformation type names to their specs.
type Registry map[string]Spec

// Register adds a spec to the registry.
func (r Registry) Register(s Spec) {
	r[s.Name()] = s
}

// Extractor parses explicit transformations from the request query.
type Extractor struct {
	specs Registry
}

// NewExtractor creates an extractor over a spec registry.
func NewExtractor(r Registry) *Extractor {
	return &Extractor{specs: r}
}

type rawParam struct {
	typ    string
	flat   string
	nested map[string]string
}

// parseQuery walks the raw query string in request order, grouping
// dot-notated keys into one parameter object per transformation type.
// Query parsing errors skip the single broken pair only.
func parseQuery(rawQuery string) []*rawParam {
	var (
		ordered []*rawParam
		byType  = make(map[string]*rawParam)
	)

	get := func(typ string) *rawParam {
		p, ok := byType[typ]
		if !ok {
			p = &rawParam{typ: typ}
			byType[typ] = p
			ordered = append(ordered, p)
		}

		return p
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}

		value, err = url.QueryUnescape(value)
		if err != nil {
			continue
		}

		if typ, field, nested := strings.Cut(key, "."); nested {
			p := get(typ)
			if p.nested == nil {
				p.nested = make(map[string]string)
			}

			p.nested[field] = value
		} else {
			get(key).flat = value
		}
	}

	return ordered
}

// Extract parses the raw request query into a list of url-sourced
// transformations, preserving the order in which the types first appear.
// Unknown types are ignored and values failing their spec are dropped with
// a warning; a malformed parameter never fails the request.
func (e *Extractor) Extract(rawQuery string) []Transformation {
	var result []Transformation
	for _, p := range parseQuery(rawQuery) {
		spec, ok := e.specs[p.typ]
		if !ok {
			continue
		}

		var raw any
		if p.nested != nil {
			raw = p.nested
		} else {
			raw = p.flat
		}

		value, err := spec.Parse(raw)
		if err != nil {
			log.Warnf("dropping transformation %s: %v", p.typ, err)
			continue
		}

		result = append(result, Transformation{
			Type:   p.typ,
			Value:  value,
			Source: SourceURL,
		})
	}

	return result
}

// helpers shared by the specs

func intInRange(raw string, min, max int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}

	if v < min || v > max {
		return 0, fmt.Errorf("value %d out of range [%d, %d]", v, min, max)
	}

	return v, nil
}

func positiveFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}

	if v <= 0 {
		return 0, fmt.Errorf("value %v must be positive", v)
	}

	return v, nil
}

func parseFlag(raw string) (bool, error) {
	switch raw {
	case "", "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("not a flag value: %q", raw)
	}
}

func expectFlat(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a flat parameter, got %T", value)
	}

	return s, nil
}

func expectNested(value any) (map[string]string, error) {
	m, ok := value.(map[string]string)
	if !ok {
		return nil, fmt.Errorf("expected dot-notated parameters, got %T", value)
	}

	return m, nil
}
