package transform

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// Client hint headers consumed by the auto-optimizer.
const (
	HeaderAccept        = "Accept"
	HeaderDPR           = "DPR"
	HeaderViewportWidth = "Viewport-Width"
)

// AutoOptimize derives additional auto-sourced transformations from the
// policy outputs, the client hint headers and the content type of the
// fetched source. Each output kind is handled independently, and an output
// never overrides a type already present in the current list.
func AutoOptimize(current []Transformation, outputs *Outputs, headers http.Header, sourceContentType string) []Transformation {
	if outputs == nil {
		return nil
	}

	seen := make(map[string]bool, len(current))
	for _, t := range current {
		seen[t.Type] = true
	}

	var result []Transformation
	add := func(typ string, value any) {
		if seen[typ] {
			return
		}

		result = append(result, Transformation{Type: typ, Value: value, Source: SourceAuto})
	}

	if f, ok := autoFormat(outputs.Format, headers.Get(HeaderAccept), sourceContentType); ok {
		add(TypeFormat, f)
	}

	if q, ok := autoQuality(outputs.Quality, headers.Get(HeaderDPR)); ok {
		add(TypeQuality, q)
	}

	if w, ok := autoSize(outputs.Autosize, headers.Get(HeaderViewportWidth)); ok {
		add(TypeResize, ResizeParams{Width: w})
	}

	return result
}

// acceptsAnything reports whether an accept header puts no restriction on
// the response format.
func acceptsAnything(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}

	return strings.Contains(accept, "*/*") || strings.Contains(accept, "image/*")
}

func autoFormat(output *FormatOutput, accept, sourceContentType string) (string, bool) {
	if output == nil || output.Value != FormatAuto {
		return "", false
	}

	open := acceptsAnything(accept)
	for _, f := range formatPriority {
		if !open {
			mime, _ := FormatMIME(f)
			if !strings.Contains(accept, mime) {
				continue
			}
		}

		// re-encoding into the source's own format would be a no-op
		if source, ok := FormatOfContentType(sourceContentType); ok && source == f {
			return "", false
		}

		return f, true
	}

	return "", false
}

func autoQuality(output *QualityOutput, dprHeader string) (int, bool) {
	if output == nil || len(output.Ranges) == 0 {
		return 0, false
	}

	dpr, err := strconv.ParseFloat(strings.TrimSpace(dprHeader), 64)
	if dprHeader == "" || err != nil {
		return output.Default, true
	}

	for _, r := range output.Ranges {
		if dpr >= r.MinDPR && dpr < r.MaxDPR {
			return r.Quality, true
		}
	}

	return output.Default, true
}

func autoSize(output *AutosizeOutput, viewportHeader string) (int, bool) {
	if output == nil || len(output.Breakpoints) == 0 || viewportHeader == "" {
		return 0, false
	}

	viewport, err := strconv.Atoi(strings.TrimSpace(viewportHeader))
	if err != nil || viewport <= 0 {
		return 0, false
	}

	breakpoints := make([]int, len(output.Breakpoints))
	copy(breakpoints, output.Breakpoints)
	sort.Ints(breakpoints)

	for _, b := range breakpoints {
		if b > viewport {
			return b, true
		}
	}

	return breakpoints[len(breakpoints)-1], true
}
