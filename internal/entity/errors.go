package entity

import "errors"

var (
	// Command errors
	ErrInvalidCommandFormat = errors.New("invalid command format")
	ErrMalformedSegment     = errors.New("malformed command segment")
	ErrMalformedParameter   = errors.New("malformed command parameter")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrInvalidDimension     = errors.New("invalid dimension")
	ErrUnsupportedFilter    = errors.New("unsupported filter")

	// Content errors
	ErrDecode = errors.New("cannot decode master image")
	ErrEncode = errors.New("cannot encode rendition")

	// Storage errors
	ErrMasterNotFound   = errors.New("master image not found")
	ErrReadOnlyStorage  = errors.New("master storage is read-only")
	ErrInvalidImageType = errors.New("invalid image type")
)

var clientErrors = []error{
	ErrInvalidCommandFormat,
	ErrMalformedSegment,
	ErrMalformedParameter,
	ErrUnknownOperation,
	ErrInvalidDimension,
	ErrUnsupportedFilter,
	ErrDecode,
	ErrEncode,
	ErrMasterNotFound,
	ErrInvalidImageType,
}

// IsClientError reports whether err was caused by the request or the stored
// content rather than by the service itself. Such errors map to "not found".
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
