package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/engine/enginetest"
	"github.com/pixgate/pixgate/httperr"
	"github.com/pixgate/pixgate/transform"
)

func fakeImage(meta engine.Metadata) *enginetest.Image {
	return &enginetest.Image{Meta: meta}
}

func TestApplyKeepsPlanOrder(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpBlur, 2.0},
		{engine.OpGrayscale, nil},
		{engine.OpFormat, "webp"},
	}

	require.NoError(t, Apply(img, plan))
	assert.Equal(t, []engine.Operation{engine.OpBlur, engine.OpGrayscale, engine.OpFormat}, img.Ops())
}

func TestApplyResizeRunsEarlyWithoutBlockers(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpBlur, 2.0},
		{engine.OpResize, engine.Resize{Width: 200}},
		{engine.OpFormat, "webp"},
	}

	require.NoError(t, Apply(img, plan))
	assert.Equal(t, []engine.Operation{engine.OpResize, engine.OpBlur, engine.OpFormat}, img.Ops())
}

func TestApplySmartCropBeforeResize(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpResize, engine.Resize{Width: 200}},
		{engine.OpSmartCrop, nil},
	}

	require.NoError(t, Apply(img, plan))
	assert.Equal(t, []engine.Operation{engine.OpSmartCrop, engine.OpResize}, img.Ops())
}

func TestApplyDefersResizeBehindExtract(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpResize, engine.Resize{Width: 200}},
		{engine.OpExtract, engine.Region{Left: 10, Top: 10, Width: 100, Height: 100}},
		{engine.OpFormat, "webp"},
	}

	require.NoError(t, Apply(img, plan))
	assert.Equal(t, []engine.Operation{engine.OpExtract, engine.OpResize, engine.OpFormat}, img.Ops())
}

func TestApplyDefersResizeBehindComposite(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpResize, engine.Resize{Width: 200}},
		{engine.OpComposite, transform.WatermarkParams{URL: "https://cdn/logo.png", X: "0", Y: "0", Alpha: 1}},
	}

	require.NoError(t, Apply(img, plan))
	assert.Equal(t, []engine.Operation{engine.OpComposite, engine.OpResize}, img.Ops())
}

func TestApplySkipsRotateAndSmartCropForAnimated(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 500, Height: 500, Format: "gif", Pages: 12})
	plan := Plan{
		{engine.OpSmartCrop, nil},
		{engine.OpRotate, 90},
		{engine.OpResize, engine.Resize{Width: 200}},
	}

	require.NoError(t, Apply(img, plan))
	assert.Equal(t, []engine.Operation{engine.OpResize}, img.Ops())
}

func TestApplyResolvesCompositeOffsets(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpComposite, transform.WatermarkParams{
			URL:        "https://cdn/logo.png",
			X:          "50p",
			Y:          "-10",
			Alpha:      0.5,
			WidthRatio: 0.25,
		}},
	}

	require.NoError(t, Apply(img, plan))
	require.Len(t, img.Applied, 1)
	assert.Equal(t, engine.Composite{
		URL:        "https://cdn/logo.png",
		Left:       500,
		Top:        10,
		FromBottom: true,
		Alpha:      0.5,
		WidthRatio: 0.25,
	}, img.Applied[0].Params)
}

func TestApplyNegativePercentageOffset(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 1000, Height: 800, Format: "png", Pages: 1})
	plan := Plan{
		{engine.OpComposite, transform.WatermarkParams{URL: "u", X: "-25p", Y: "0", Alpha: 1}},
	}

	require.NoError(t, Apply(img, plan))
	require.Len(t, img.Applied, 1)
	c := img.Applied[0].Params.(engine.Composite)
	assert.Equal(t, 250, c.Left)
	assert.True(t, c.FromRight)
	assert.False(t, c.FromBottom)
}

func TestApplyEngineFailure(t *testing.T) {
	img := fakeImage(engine.Metadata{Width: 100, Height: 100, Format: "png", Pages: 1})
	img.FailOn = engine.OpBlur

	err := Apply(img, Plan{{engine.OpBlur, 1.0}})
	require.Error(t, err)

	he := httperr.FromError(err)
	assert.Equal(t, httperr.KindImageProcessing, he.Kind)
	assert.Equal(t, 500, he.Status)
}
