package transform

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// headerMatches implements the shared allow-list semantics of equals and
// isIn: the expected value is either a single string or a list, and a list
// matches when the header equals any member exactly.
func headerMatches(header string, expected any) bool {
	switch v := expected.(type) {
	case string:
		return header == v
	case []string:
		for _, e := range v {
			if header == e {
				return true
			}
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && header == s {
				return true
			}
		}
	}

	return false
}

func evaluateConditional(c *Conditional, headers http.Header) (included bool) {

	// any failure during evaluation excludes the transformation
	defer func() {
		if p := recover(); p != nil {
			log.Warnf("conditional on %s panicked, excluding: %v", c.Target, p)
			included = false
		}
	}()

	header := headers.Get(c.Target)
	if header == "" {
		// fail closed on an absent header
		return false
	}

	switch c.Operator {
	case OpEquals, OpIsIn:
		return headerMatches(header, c.Value)
	default:
		log.Warnf("unknown conditional operator %q on %s, excluding", c.Operator, c.Target)
		return false
	}
}

// EvaluateConditionals filters the merged list against the request headers.
// Transformations without a conditional always pass.
func EvaluateConditionals(list []Transformation, headers http.Header) []Transformation {
	result := make([]Transformation, 0, len(list))
	for _, t := range list {
		if t.Conditional == nil || evaluateConditional(t.Conditional, headers) {
			result = append(result, t)
		}
	}

	return result
}
