package edit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate/engine"
	"github.com/pixgate/pixgate/httperr"
	"github.com/pixgate/pixgate/transform"
)

// resolveOffset evaluates a watermark offset expression against a base
// dimension. Plain numbers are absolute pixels, a "p" suffix is a
// percentage of the base dimension. Negative values measure from the far
// edge; the engine subtracts the overlay size there.
func resolveOffset(spec string, base int) (px int, fromFar bool, err error) {
	s := spec
	percent := strings.HasSuffix(s, "p")
	if percent {
		s = strings.TrimSuffix(s, "p")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad offset %q", spec)
	}

	if v < 0 {
		fromFar = true
		v = -v
	}

	if percent {
		v = v / 100 * float64(base)
	}

	return int(v), fromFar, nil
}

func resolveComposite(p transform.WatermarkParams, meta engine.Metadata) (engine.Composite, error) {
	c := engine.Composite{
		URL:         p.URL,
		Alpha:       p.Alpha,
		WidthRatio:  p.WidthRatio,
		HeightRatio: p.HeightRatio,
	}

	var err error
	if c.Left, c.FromRight, err = resolveOffset(p.X, meta.Width); err != nil {
		return c, err
	}

	if c.Top, c.FromBottom, err = resolveOffset(p.Y, meta.Height); err != nil {
		return c, err
	}

	return c, nil
}

func hasOp(plan Plan, op engine.Operation) bool {
	for _, e := range plan {
		if e.Op == op {
			return true
		}
	}

	return false
}

// orderPlan computes the application order. Smart cropping runs first,
// resize follows immediately unless a crop or composite is present, in
// which case it is deferred until after the last of them. Rotation and
// smart cropping are skipped for animated sources. Everything else keeps
// its plan order.
func orderPlan(plan Plan, meta engine.Metadata) Plan {
	var (
		resize     *Edit
		hasBlocker = hasOp(plan, engine.OpExtract) || hasOp(plan, engine.OpComposite)
		ordered    = make(Plan, 0, len(plan))
	)

	lastBlocker := -1
	for i, e := range plan {
		if e.Op == engine.OpExtract || e.Op == engine.OpComposite {
			lastBlocker = i
		}
	}

	skipAnimated := func(op engine.Operation) bool {
		if !meta.Animated() {
			return false
		}

		if op == engine.OpRotate || op == engine.OpSmartCrop {
			log.Debugf("skipping %s for animated source", op)
			return true
		}

		return false
	}

	for _, e := range plan {
		if e.Op == engine.OpSmartCrop && !skipAnimated(e.Op) {
			ordered = append(ordered, e)
		}
	}

	for i := range plan {
		if plan[i].Op == engine.OpResize {
			resize = &plan[i]
			break
		}
	}

	if resize != nil && !hasBlocker {
		ordered = append(ordered, *resize)
	}

	for i, e := range plan {
		if e.Op == engine.OpSmartCrop || e.Op == engine.OpResize || skipAnimated(e.Op) {
			continue
		}

		ordered = append(ordered, e)
		if hasBlocker && resize != nil && i == lastBlocker {
			ordered = append(ordered, *resize)
		}
	}

	return ordered
}

// Apply runs the plan against a decoded image in dependency order.
func Apply(img engine.Image, plan Plan) error {
	meta := img.Metadata()
	for _, e := range orderPlan(plan, meta) {
		params := e.Params
		if e.Op == engine.OpComposite {
			c, err := resolveComposite(params.(transform.WatermarkParams), img.Metadata())
			if err != nil {
				log.Warnf("skipping composite: %v", err)
				continue
			}

			params = c
		}

		if err := img.Apply(e.Op, params); err != nil {
			return httperr.ImageProcessing(
				http.StatusInternalServerError,
				"image processing failed",
				fmt.Sprintf("engine rejected %s: %v", e.Op, err),
			).Wrap(err)
		}
	}

	return nil
}
