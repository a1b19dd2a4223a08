package command

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ds124wfegd/image-transform/internal/entity"
)

// defaultDimension is used when a segment omits w_ or h_.
const defaultDimension = 128

// ParseSegment splits one textual segment such as "thumbnail,w_128,h_128,m_n"
// into the operation name and its raw parameters. Values are not validated.
func ParseSegment(segment string) (string, map[string]string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", entity.ErrMalformedSegment, segment)
	}

	operation, rest, found := strings.Cut(decoded, ",")
	if !found {
		return "", nil, fmt.Errorf("%w: %q", entity.ErrMalformedSegment, decoded)
	}

	params := make(map[string]string)
	for _, token := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(token, "_")
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", entity.ErrMalformedParameter, token)
		}
		params[key] = value
	}

	return operation, params, nil
}

// NewOperation converts a parsed segment into a typed operation. Unknown
// operation names are rejected here, before anything touches an image.
func NewOperation(name string, params map[string]string) (entity.Operation, error) {
	kind, err := entity.ParseKind(name)
	if err != nil {
		return entity.Operation{}, err
	}

	op := entity.Operation{Kind: kind, Width: defaultDimension, Height: defaultDimension}
	for key, value := range params {
		switch key {
		case "w":
			if op.Width, err = parseDimension(value); err != nil {
				return entity.Operation{}, err
			}
		case "h":
			if op.Height, err = parseDimension(value); err != nil {
				return entity.Operation{}, err
			}
		case "m":
			if op.Filter, err = entity.ParseFilter(value); err != nil {
				return entity.Operation{}, err
			}
		default:
			return entity.Operation{}, fmt.Errorf("%w: unknown key %q", entity.ErrMalformedParameter, key)
		}
	}

	return op, nil
}

func parseDimension(value string) (uint, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", entity.ErrInvalidDimension, value)
	}
	return uint(n), nil
}
