package transform

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hintHeaders(pairs ...string) http.Header {
	h := make(http.Header)
	for i := 0; i < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}

	return h
}

func TestAutoFormatPicksPriorityOrder(t *testing.T) {
	outputs := &Outputs{Format: &FormatOutput{Value: FormatAuto}}

	for _, test := range []struct {
		name   string
		accept string
		source string
		expect string
	}{
		{"accepts anything", "*/*", "image/png", FormatWebP},
		{"empty accept", "", "image/png", FormatWebP},
		{"image wildcard", "image/*", "image/png", FormatWebP},
		{"avif only", "image/avif", "image/png", FormatAVIF},
		{"avif and webp", "image/avif,image/webp", "image/png", FormatWebP},
		{"jpeg fallback", "image/jpeg,image/gif", "image/png", FormatJPEG},
		{"nothing acceptable", "text/html", "image/png", ""},
	} {
		t.Run(test.name, func(t *testing.T) {
			result := AutoOptimize(nil, outputs, hintHeaders(HeaderAccept, test.accept), test.source)
			if test.expect == "" {
				assert.Empty(t, result)
				return
			}

			require.Len(t, result, 1)
			assert.Equal(t, TypeFormat, result[0].Type)
			assert.Equal(t, test.expect, result[0].Value)
			assert.Equal(t, SourceAuto, result[0].Source)
		})
	}
}

func TestAutoFormatSkipsNoopReencode(t *testing.T) {
	outputs := &Outputs{Format: &FormatOutput{Value: FormatAuto}}

	result := AutoOptimize(nil, outputs, hintHeaders(HeaderAccept, "*/*"), "image/webp")
	assert.Empty(t, result)
}

func TestAutoFormatInactiveForConcreteOutput(t *testing.T) {
	outputs := &Outputs{Format: &FormatOutput{Value: FormatJPEG}}

	result := AutoOptimize(nil, outputs, hintHeaders(HeaderAccept, "*/*"), "image/png")
	assert.Empty(t, result)
}

func TestAutoQualityByDPRRange(t *testing.T) {
	outputs := &Outputs{Quality: &QualityOutput{
		Default: 90,
		Ranges: []DPRRange{
			{MinDPR: 1, MaxDPR: 2, Quality: 90},
			{MinDPR: 2, MaxDPR: 3, Quality: 85},
			{MinDPR: 3, MaxDPR: 4, Quality: 80},
		},
	}}

	for _, test := range []struct {
		dpr    string
		expect int
	}{
		{"2.5", 85},
		{"1", 90},
		{"2", 85}, // half-open: 2 falls into [2, 3)
		{"3.9", 80},
		{"9", 90},  // no range matched, default
		{"", 90},   // no hint, default
		{"x", 90},  // unparsable hint, default
	} {
		result := AutoOptimize(nil, outputs, hintHeaders(HeaderDPR, test.dpr), "image/png")
		require.Len(t, result, 1, "dpr %q", test.dpr)
		assert.Equal(t, TypeQuality, result[0].Type)
		assert.Equal(t, test.expect, result[0].Value, "dpr %q", test.dpr)
		assert.Equal(t, SourceAuto, result[0].Source)
	}
}

func TestAutoQualityInactiveWithoutRanges(t *testing.T) {
	outputs := &Outputs{Quality: &QualityOutput{Default: 90}}

	result := AutoOptimize(nil, outputs, hintHeaders(HeaderDPR, "2"), "image/png")
	assert.Empty(t, result)
}

func TestAutosize(t *testing.T) {
	outputs := &Outputs{Autosize: &AutosizeOutput{Breakpoints: []int{1280, 320, 640}}}

	for _, test := range []struct {
		viewport string
		expect   int
	}{
		{"300", 320},
		{"320", 640}, // strictly greater
		{"700", 1280},
		{"2000", 1280}, // beyond all breakpoints, largest
	} {
		result := AutoOptimize(nil, outputs, hintHeaders(HeaderViewportWidth, test.viewport), "image/png")
		require.Len(t, result, 1, "viewport %q", test.viewport)
		assert.Equal(t, TypeResize, result[0].Type)
		assert.Equal(t, ResizeParams{Width: test.expect}, result[0].Value)
	}
}

func TestAutosizeInvalidViewport(t *testing.T) {
	outputs := &Outputs{Autosize: &AutosizeOutput{Breakpoints: []int{320, 640}}}

	for _, viewport := range []string{"", "0", "-100", "wide"} {
		result := AutoOptimize(nil, outputs, hintHeaders(HeaderViewportWidth, viewport), "image/png")
		assert.Empty(t, result, "viewport %q", viewport)
	}
}

func TestAutoNeverOverridesExplicit(t *testing.T) {
	outputs := &Outputs{
		Quality:  &QualityOutput{Default: 90, Ranges: []DPRRange{{MinDPR: 1, MaxDPR: 4, Quality: 70}}},
		Autosize: &AutosizeOutput{Breakpoints: []int{320}},
	}

	current := []Transformation{
		{Type: TypeQuality, Value: 75, Source: SourceURL},
		{Type: TypeResize, Value: ResizeParams{Width: 200}, Source: SourceURL},
	}

	headers := hintHeaders(HeaderDPR, "2", HeaderViewportWidth, "300")
	assert.Empty(t, AutoOptimize(current, outputs, headers, "image/png"))
}

func TestAutoOptimizeNilOutputs(t *testing.T) {
	assert.Empty(t, AutoOptimize(nil, nil, hintHeaders(HeaderDPR, "2"), "image/png"))
}
