// Package enginetest provides a fake engine implementation recording the
// operations applied to it, for testing the edit pipeline without a real
// image codec.
package enginetest

import (
	"errors"

	"github.com/pixgate/pixgate/engine"
)

// AppliedOp is one recorded Apply call.
type AppliedOp struct {
	Op     engine.Operation
	Params any
}

// Image is a fake engine.Image.
type Image struct {
	Meta engine.Metadata

	// Applied collects the operations in application order.
	Applied []AppliedOp

	// FailOn makes Apply return an error for the named operation.
	FailOn engine.Operation

	// EncodedData and EncodedContentType are returned by Encode. When
	// EncodedContentType is empty, the metadata format's MIME-like name is
	// used.
	EncodedData        []byte
	EncodedContentType string
}

var errFailed = errors.New("engine operation failed")

func (i *Image) Metadata() engine.Metadata { return i.Meta }

func (i *Image) Apply(op engine.Operation, params any) error {
	if op == i.FailOn && op != "" {
		return errFailed
	}

	i.Applied = append(i.Applied, AppliedOp{Op: op, Params: params})
	return nil
}

func (i *Image) Encode() ([]byte, string, error) {
	ct := i.EncodedContentType
	if ct == "" {
		ct = "image/" + i.Meta.Format
	}

	return i.EncodedData, ct, nil
}

// Ops returns the names of the applied operations in order.
func (i *Image) Ops() []engine.Operation {
	ops := make([]engine.Operation, len(i.Applied))
	for j, a := range i.Applied {
		ops[j] = a.Op
	}

	return ops
}

// Engine is a fake engine.Engine handing out a prepared image.
type Engine struct {
	Image     *Image
	DecodeErr error

	// Decoded holds the data passed to the last Decode call.
	Decoded []byte
}

func (e *Engine) Decode(data []byte) (engine.Image, error) {
	if e.DecodeErr != nil {
		return nil, e.DecodeErr
	}

	e.Decoded = data
	return e.Image, nil
}
