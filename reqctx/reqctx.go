/*
Package reqctx holds the per-request accumulator threaded through the
resolution pipeline. A Context is created for each inbound request, filled
progressively by the pipeline stages and discarded once the response is
sent; it is never shared between concurrent requests.
*/
package reqctx

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pixgate/pixgate/mapping"
	"github.com/pixgate/pixgate/origin"
	"github.com/pixgate/pixgate/policy"
	"github.com/pixgate/pixgate/transform"
)

// Timings collects the per-stage durations for observability.
type Timings struct {
	MappingResolveMicros int64 `json:"mappingResolveMicros"`
	OriginResolveMicros  int64 `json:"originResolveMicros"`
	PolicyResolveMicros  int64 `json:"policyResolveMicros"`
	ExtractMicros        int64 `json:"extractMicros"`
	AutoOptMicros        int64 `json:"autoOptMicros"`
	MergeMicros          int64 `json:"mergeMicros"`
	EditMapMicros        int64 `json:"editMapMicros"`
	ApplyMicros          int64 `json:"applyMicros"`
	TotalMillis          int64 `json:"totalMillis"`
}

// Response carries what is known about the outgoing response.
type Response struct {
	Headers     http.Header
	ContentType string
	Status      int
}

// Context is the single-request pipeline state.
type Context struct {
	ID            string
	Start         time.Time
	ClientHeaders http.Header

	Mapping         *mapping.Resolved
	Origin          *origin.Config
	OriginURL       string
	Policy          *policy.Policy
	Transformations []transform.Transformation

	// DroppedTransformations counts the transformations removed by the
	// hard cap.
	DroppedTransformations int

	Response Response
	Timings  Timings
}

// New creates a fresh context for one inbound request.
func New(headers http.Header) *Context {
	return &Context{
		ID:            uuid.NewString(),
		Start:         time.Now(),
		ClientHeaders: headers,
		Response:      Response{Headers: make(http.Header)},
	}
}

// Stage measures one pipeline stage into the given timing field.
func (c *Context) Stage(field *int64, f func() error) error {
	start := time.Now()
	err := f()
	*field = time.Since(start).Microseconds()
	return err
}

// Finish freezes the total request duration.
func (c *Context) Finish() {
	c.Timings.TotalMillis = time.Since(c.Start).Milliseconds()
}
