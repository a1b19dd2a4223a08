// Package command implements the transformation command chain: the grammar
// embedded in rendition URLs and its typed representation.
//
// A chain serializes as operation segments joined by "/", each segment being
// "<kind>,w_<width>,h_<height>,m_<filter>":
//
//	thumbnail,w_128,h_128,m_n/resize,w_100,h_100,m_n
package command

import (
	"fmt"
	"strings"

	"github.com/ds124wfegd/image-transform/internal/entity"
)

// Chain is an ordered list of operations. Order matters: operations are
// applied one after another.
type Chain struct {
	ops []entity.Operation
}

func NewChain(ops ...entity.Operation) *Chain {
	return &Chain{ops: append([]entity.Operation(nil), ops...)}
}

// Append adds an operation and returns the chain so calls can be chained.
// The filter defaults to Nearest.
func (c *Chain) Append(kind entity.Kind, width, height uint, filter ...entity.FilterMode) *Chain {
	op := entity.Operation{Kind: kind, Width: width, Height: height}
	if len(filter) > 0 {
		op.Filter = filter[0]
	}
	c.ops = append(c.ops, op)
	return c
}

func (c *Chain) Thumbnail(width, height uint, filter ...entity.FilterMode) *Chain {
	return c.Append(entity.Thumbnail, width, height, filter...)
}

func (c *Chain) Resize(width, height uint, filter ...entity.FilterMode) *Chain {
	return c.Append(entity.Resize, width, height, filter...)
}

func (c *Chain) Fit(width, height uint, filter ...entity.FilterMode) *Chain {
	return c.Append(entity.Fit, width, height, filter...)
}

// Operations returns a copy of the operations in application order.
func (c *Chain) Operations() []entity.Operation {
	return append([]entity.Operation(nil), c.ops...)
}

func (c *Chain) Len() int {
	return len(c.ops)
}

// String is Serialize.
func (c *Chain) String() string {
	return c.Serialize()
}

// Serialize renders the chain in its canonical textual form.
func (c *Chain) Serialize() string {
	segments := make([]string, len(c.ops))
	for i, op := range c.ops {
		segments[i] = op.String()
	}
	return strings.Join(segments, "/")
}

// Validate checks every operation of a chain built in code.
func (c *Chain) Validate() error {
	if len(c.ops) == 0 {
		return fmt.Errorf("%w: empty chain", entity.ErrInvalidCommandFormat)
	}
	for i, op := range c.ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// Parse decodes the textual form back into a chain. It fails on the first
// malformed or disallowed segment.
func Parse(text string) (*Chain, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty command", entity.ErrInvalidCommandFormat)
	}

	chain := &Chain{}
	for _, segment := range strings.Split(text, "/") {
		name, params, err := ParseSegment(segment)
		if err != nil {
			return nil, err
		}
		op, err := NewOperation(name, params)
		if err != nil {
			return nil, err
		}
		chain.ops = append(chain.ops, op)
	}

	return chain, nil
}
