package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/transform"
)

func TestMapBasicOps(t *testing.T) {
	plan := Map([]transform.Transformation{
		{Type: transform.TypeResize, Value: transform.ResizeParams{Width: 200, Height: 100, Fit: "cover"}},
		{Type: transform.TypeQuality, Value: 80},
		{Type: transform.TypeFormat, Value: "jpg"},
		{Type: transform.TypeRotate, Value: 90},
		{Type: transform.TypeBlur, Value: 2.5},
		{Type: transform.TypeFlip, Value: true},
	})

	require.Len(t, plan, 6)
	assert.Equal(t, Edit{engine.OpResize, engine.Resize{Width: 200, Height: 100, Fit: "cover"}}, plan[0])
	assert.Equal(t, Edit{engine.OpQuality, 80}, plan[1])
	assert.Equal(t, Edit{engine.OpFormat, transform.FormatJPEG}, plan[2])
	assert.Equal(t, Edit{engine.OpRotate, 90}, plan[3])
	assert.Equal(t, Edit{engine.OpBlur, 2.5}, plan[4])
	assert.Equal(t, Edit{engine.OpFlip, nil}, plan[5])
}

func TestMapCornersToRegion(t *testing.T) {
	plan := Map([]transform.Transformation{
		{Type: transform.TypeExtract, Value: []float64{10, 20, 110, 220}},
	})

	require.Len(t, plan, 1)
	assert.Equal(t, engine.OpExtract, plan[0].Op)
	assert.Equal(t, engine.Region{Left: 10, Top: 20, Width: 100, Height: 200}, plan[0].Params)
}

func TestMapDropsBadCornerCount(t *testing.T) {
	for _, corners := range [][]float64{{10, 20}, {10, 20, 30, 40, 50}, {}} {
		plan := Map([]transform.Transformation{
			{Type: transform.TypeExtract, Value: corners},
		})
		assert.Empty(t, plan, corners)
	}
}

func TestMapColors(t *testing.T) {
	alpha := 128.0
	for _, test := range []struct {
		name   string
		value  any
		expect engine.Color
	}{
		{"named", "white", engine.Color{R: 255, G: 255, B: 255}},
		{"hex", "#ff0080", engine.Color{R: 255, G: 0, B: 128}},
		{"short hex", "#f08", engine.Color{R: 255, G: 0, B: 136}},
		{"channels", []float64{16, 32, 64}, engine.Color{R: 16, G: 32, B: 64}},
		{"channels with alpha", []float64{16, 32, 64, 128}, engine.Color{R: 16, G: 32, B: 64, Alpha: &alpha}},
	} {
		t.Run(test.name, func(t *testing.T) {
			plan := Map([]transform.Transformation{
				{Type: transform.TypeFlatten, Value: test.value},
			})

			require.Len(t, plan, 1)
			assert.Equal(t, engine.OpFlatten, plan[0].Op)
			assert.Equal(t, test.expect, plan[0].Params)
		})
	}
}

func TestMapDropsUnknownColor(t *testing.T) {
	plan := Map([]transform.Transformation{
		{Type: transform.TypeTint, Value: "chartreuse-ish"},
	})
	assert.Empty(t, plan)
}

func TestMapDisabledFlagsProduceNoEdit(t *testing.T) {
	plan := Map([]transform.Transformation{
		{Type: transform.TypeFlip, Value: false},
		{Type: transform.TypeGrayscale, Value: true},
	})

	require.Len(t, plan, 1)
	assert.Equal(t, engine.OpGrayscale, plan[0].Op)
}

func TestMapWatermarkKeepsRawOffsets(t *testing.T) {
	p := transform.WatermarkParams{URL: "https://cdn/logo.png", X: "50p", Y: "-10", Alpha: 0.5}
	plan := Map([]transform.Transformation{
		{Type: transform.TypeWatermark, Value: p},
	})

	require.Len(t, plan, 1)
	assert.Equal(t, engine.OpComposite, plan[0].Op)
	assert.Equal(t, p, plan[0].Params)
}
