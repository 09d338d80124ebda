/*
Package stdimage implements the engine contract on the Go image packages.
It is the engine shipped with the pixgate command, sufficient for the
common delivery edits without a native imaging dependency.

Limitations compared to a full native engine: smart cropping is not
available, rotation is limited to multiples of ninety degrees, and
animated sources are flattened to their first frame on output. Requested
output formats without an encoder fall back to the source format, which
the caller observes through the encoded content type.
*/
package stdimage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"time"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/transform"
)

const defaultOverlayTimeout = 10 * time.Second

// Engine decodes images with the codecs registered by the image packages.
type Engine struct {

	// Client fetches composite overlays. When nil, a client with a
	// default timeout is used.
	Client *http.Client
}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Decode(data []byte) (engine.Image, error) {
	m, formatName, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	format, ok := transform.CanonicalFormat(formatName)
	if !ok {
		format = formatName
	}

	pages := 1
	if format == transform.FormatGIF {
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil {
			pages = len(g.Image)
		}
	}

	client := e.Client
	if client == nil {
		client = &http.Client{Timeout: defaultOverlayTimeout}
	}

	return &editable{
		current: toNRGBA(m),
		format:  format,
		pages:   pages,
		client:  client,
	}, nil
}

type editable struct {
	current *image.NRGBA
	format  string
	pages   int
	client  *http.Client

	// encode state collected from format, quality and strip edits
	target  string
	quality int
}

func (i *editable) Metadata() engine.Metadata {
	b := i.current.Bounds()
	return engine.Metadata{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: i.format,
		Pages:  i.pages,
	}
}

func (i *editable) Apply(op engine.Operation, params any) error {
	switch op {
	case engine.OpResize:
		p, ok := params.(engine.Resize)
		if !ok {
			return badParams(op, params)
		}

		return i.resize(p)

	case engine.OpExtract:
		p, ok := params.(engine.Region)
		if !ok {
			return badParams(op, params)
		}

		return i.extract(p)

	case engine.OpComposite:
		p, ok := params.(engine.Composite)
		if !ok {
			return badParams(op, params)
		}

		return i.composite(p)

	case engine.OpRotate:
		angle, ok := params.(int)
		if !ok {
			return badParams(op, params)
		}

		return i.rotate(angle)

	case engine.OpFlip:
		i.flip()
		return nil

	case engine.OpFlop:
		i.flop()
		return nil

	case engine.OpBlur:
		sigma, ok := params.(float64)
		if !ok {
			return badParams(op, params)
		}

		i.current = gaussianBlur(i.current, sigma)
		return nil

	case engine.OpSharpen:
		sigma, ok := params.(float64)
		if !ok {
			return badParams(op, params)
		}

		i.sharpen(sigma)
		return nil

	case engine.OpTint:
		c, ok := params.(engine.Color)
		if !ok {
			return badParams(op, params)
		}

		i.tint(c)
		return nil

	case engine.OpFlatten:
		c, ok := params.(engine.Color)
		if !ok {
			return badParams(op, params)
		}

		i.flatten(c)
		return nil

	case engine.OpGrayscale:
		i.grayscale()
		return nil

	case engine.OpFormat:
		f, ok := params.(string)
		if !ok {
			return badParams(op, params)
		}

		if encodable(f) {
			i.target = f
		}

		return nil

	case engine.OpQuality:
		q, ok := params.(int)
		if !ok {
			return badParams(op, params)
		}

		i.quality = q
		return nil

	case engine.OpStrip:
		// the stdlib encoders write no metadata
		return nil

	case engine.OpSmartCrop:
		return fmt.Errorf("operation %s not supported by the built-in engine", op)

	default:
		return fmt.Errorf("unknown operation %s", op)
	}
}

func (i *editable) Encode() ([]byte, string, error) {
	format := i.target
	if format == "" {
		format = i.format
	}

	if !encodable(format) {
		format = transform.FormatPNG
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case transform.FormatJPEG:
		o := &jpeg.Options{Quality: jpeg.DefaultQuality}
		if i.quality > 0 {
			o.Quality = i.quality
		}

		err = jpeg.Encode(&buf, i.current, o)
	case transform.FormatGIF:
		err = gif.Encode(&buf, i.current, nil)
	default:
		err = png.Encode(&buf, i.current)
	}

	if err != nil {
		return nil, "", fmt.Errorf("encoding %s: %w", format, err)
	}

	contentType, _ := transform.FormatMIME(format)
	return buf.Bytes(), contentType, nil
}

func badParams(op engine.Operation, params any) error {
	return fmt.Errorf("invalid parameters for %s: %T", op, params)
}

func encodable(format string) bool {
	switch format {
	case transform.FormatJPEG, transform.FormatPNG, transform.FormatGIF:
		return true
	default:
		return false
	}
}

func toNRGBA(m image.Image) *image.NRGBA {
	if n, ok := m.(*image.NRGBA); ok {
		return n
	}

	b := m.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), m, b.Min, draw.Src)
	return n
}

// targetSize computes the scale target for the requested box and fit
// mode, preserving the aspect ratio unless the mode is fill. The second
// rectangle is the crop applied after scaling, zero when no crop is
// needed.
func targetSize(srcW, srcH int, p engine.Resize) (w, h int, crop image.Rectangle) {
	if p.Width == 0 {
		w = srcW * p.Height / srcH
		return w, p.Height, image.Rectangle{}
	}

	if p.Height == 0 {
		h = srcH * p.Width / srcW
		return p.Width, h, image.Rectangle{}
	}

	scaleX := float64(p.Width) / float64(srcW)
	scaleY := float64(p.Height) / float64(srcH)

	switch p.Fit {
	case "fill":
		return p.Width, p.Height, image.Rectangle{}

	case "contain":
		s := math.Min(scaleX, scaleY)
		return scaled(srcW, srcH, s)

	case "inside":
		s := math.Min(math.Min(scaleX, scaleY), 1)
		return scaled(srcW, srcH, s)

	case "outside":
		s := math.Max(scaleX, scaleY)
		return scaled(srcW, srcH, s)

	default: // cover
		s := math.Max(scaleX, scaleY)
		w, h, _ = scaled(srcW, srcH, s)
		left := (w - p.Width) / 2
		top := (h - p.Height) / 2
		return w, h, image.Rect(left, top, left+p.Width, top+p.Height)
	}
}

func scaled(w, h int, s float64) (int, int, image.Rectangle) {
	return max(int(math.Round(float64(w)*s)), 1),
		max(int(math.Round(float64(h)*s)), 1),
		image.Rectangle{}
}

func (i *editable) resize(p engine.Resize) error {
	b := i.current.Bounds()
	w, h, crop := targetSize(b.Dx(), b.Dy(), p)
	if w < 1 || h < 1 {
		return fmt.Errorf("resize to %dx%d", w, h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), i.current, b, xdraw.Src, nil)
	i.current = dst

	if !crop.Empty() {
		return i.extract(engine.Region{
			Left:   crop.Min.X,
			Top:    crop.Min.Y,
			Width:  crop.Dx(),
			Height: crop.Dy(),
		})
	}

	return nil
}

func (i *editable) extract(p engine.Region) error {
	r := image.Rect(p.Left, p.Top, p.Left+p.Width, p.Top+p.Height)
	r = r.Intersect(i.current.Bounds())
	if r.Empty() {
		return fmt.Errorf("extract region %dx%d+%d+%d outside the image", p.Width, p.Height, p.Left, p.Top)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), i.current, r.Min, draw.Src)
	i.current = dst
	return nil
}

func (i *editable) composite(p engine.Composite) error {
	overlay, err := i.fetchOverlay(p.URL)
	if err != nil {
		return err
	}

	base := i.current.Bounds()
	ow, oh := overlay.Bounds().Dx(), overlay.Bounds().Dy()

	if p.WidthRatio > 0 || p.HeightRatio > 0 {
		w, h := ow, oh
		if p.WidthRatio > 0 {
			w = int(float64(base.Dx()) * p.WidthRatio)
		}

		if p.HeightRatio > 0 {
			h = int(float64(base.Dy()) * p.HeightRatio)
		}

		if p.WidthRatio == 0 {
			w = ow * h / oh
		}

		if p.HeightRatio == 0 {
			h = oh * w / ow
		}

		scaledOverlay := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
		xdraw.CatmullRom.Scale(scaledOverlay, scaledOverlay.Bounds(), overlay, overlay.Bounds(), xdraw.Src, nil)
		overlay = scaledOverlay
		ow, oh = overlay.Bounds().Dx(), overlay.Bounds().Dy()
	}

	left, top := p.Left, p.Top
	if p.FromRight {
		left = base.Dx() - left - ow
	}

	if p.FromBottom {
		top = base.Dy() - top - oh
	}

	var mask image.Image
	if p.Alpha > 0 && p.Alpha < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(p.Alpha * math.MaxUint16)})
	}

	r := image.Rect(left, top, left+ow, top+oh)
	draw.DrawMask(i.current, r, overlay, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

func (i *editable) fetchOverlay(url string) (*image.NRGBA, error) {
	rsp, err := i.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching overlay: %w", err)
	}

	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching overlay: status %d", rsp.StatusCode)
	}

	m, _, err := image.Decode(io.LimitReader(rsp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("decoding overlay: %w", err)
	}

	return toNRGBA(m), nil
}

func (i *editable) rotate(angle int) error {
	a := ((angle % 360) + 360) % 360
	if a%90 != 0 {
		return fmt.Errorf("rotation by %d not supported by the built-in engine", angle)
	}

	for ; a > 0; a -= 90 {
		i.rotate90()
	}

	return nil
}

// rotate90 turns the image a quarter turn clockwise.
func (i *editable) rotate90() {
	src := i.current
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetNRGBA(b.Dy()-1-y, x, src.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}

	i.current = dst
}

func (i *editable) flip() {
	src := i.current
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetNRGBA(x, b.Dy()-1-y, src.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}

	i.current = dst
}

func (i *editable) flop() {
	src := i.current
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetNRGBA(b.Dx()-1-x, y, src.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}

	i.current = dst
}

func (i *editable) tint(c engine.Color) {
	rf, gf, bf := c.R/255, c.G/255, c.B/255
	px := i.current.Pix
	for o := 0; o < len(px); o += 4 {
		px[o] = uint8(float64(px[o]) * rf)
		px[o+1] = uint8(float64(px[o+1]) * gf)
		px[o+2] = uint8(float64(px[o+2]) * bf)
	}
}

func (i *editable) flatten(c engine.Color) {
	b := i.current.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	bg := color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), i.current, b.Min, draw.Over)
	i.current = dst
}

func (i *editable) grayscale() {
	px := i.current.Pix
	for o := 0; o < len(px); o += 4 {
		// Rec. 601 luma
		y := uint8((299*int(px[o]) + 587*int(px[o+1]) + 114*int(px[o+2])) / 1000)
		px[o], px[o+1], px[o+2] = y, y, y
	}
}

func (i *editable) sharpen(sigma float64) {
	blurred := gaussianBlur(i.current, sigma)
	px, bx := i.current.Pix, blurred.Pix
	for o := 0; o < len(px); o++ {
		if o%4 == 3 {
			continue
		}

		v := 2*int(px[o]) - int(bx[o])
		px[o] = clamp8(v)
	}
}

// gaussianBlur applies a separable gaussian kernel with the given sigma.
func gaussianBlur(src *image.NRGBA, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return src
	}

	radius := int(math.Ceil(sigma * 3))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	// horizontal pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl, a float64
			for k, kv := range kernel {
				sx := min(max(x+k-radius, 0), w-1)
				c := src.NRGBAAt(b.Min.X+sx, b.Min.Y+y)
				r += kv * float64(c.R)
				g += kv * float64(c.G)
				bl += kv * float64(c.B)
				a += kv * float64(c.A)
			}

			tmp.SetNRGBA(x, y, color.NRGBA{clamp8(int(r)), clamp8(int(g)), clamp8(int(bl)), clamp8(int(a))})
		}
	}

	// vertical pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl, a float64
			for k, kv := range kernel {
				sy := min(max(y+k-radius, 0), h-1)
				c := tmp.NRGBAAt(x, sy)
				r += kv * float64(c.R)
				g += kv * float64(c.G)
				bl += kv * float64(c.B)
				a += kv * float64(c.A)
			}

			dst.SetNRGBA(x, y, color.NRGBA{clamp8(int(r)), clamp8(int(g)), clamp8(int(bl)), clamp8(int(a))})
		}
	}

	return dst
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}

	if v > 255 {
		return 255
	}

	return uint8(v)
}
