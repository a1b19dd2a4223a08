package entity

import (
	"fmt"
	"strconv"
)

type Kind int

const (
	Thumbnail Kind = iota
	Resize
	Fit
)

var kindNames = map[Kind]string{
	Thumbnail: "thumbnail",
	Resize:    "resize",
	Fit:       "fit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind accepts only the three known operation names.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "thumbnail":
		return Thumbnail, nil
	case "resize":
		return Resize, nil
	case "fit":
		return Fit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// FilterMode selects the resampling filter. The zero value is Nearest.
type FilterMode int

const (
	Nearest FilterMode = iota
	Bilinear
	Bicubic
	Antialias
)

// Code returns the single-letter code used in the command grammar.
func (f FilterMode) Code() string {
	switch f {
	case Nearest:
		return "n"
	case Bilinear:
		return "b"
	case Bicubic:
		return "c"
	case Antialias:
		return "a"
	}
	return ""
}

func (f FilterMode) String() string {
	switch f {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	case Antialias:
		return "antialias"
	}
	return "FilterMode(" + strconv.Itoa(int(f)) + ")"
}

// Valid reports whether f is one of the four known filters.
func (f FilterMode) Valid() bool {
	return f >= Nearest && f <= Antialias
}

// ParseFilter decodes a filter code. An empty code means Nearest and "l" is
// accepted as an alias of "b".
func ParseFilter(code string) (FilterMode, error) {
	switch code {
	case "", "n":
		return Nearest, nil
	case "b", "l":
		return Bilinear, nil
	case "c":
		return Bicubic, nil
	case "a":
		return Antialias, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFilter, code)
}

// Operation is one step of a command chain.
type Operation struct {
	Kind   Kind
	Width  uint
	Height uint
	Filter FilterMode
}

// Validate checks dimensions and filter; Kind is checked by ParseKind.
func (o Operation) Validate() error {
	if _, ok := kindNames[o.Kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, o.Kind)
	}
	if o.Width == 0 || o.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, o.Width, o.Height)
	}
	if !o.Filter.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFilter, o.Filter)
	}
	return nil
}

func (o Operation) String() string {
	return fmt.Sprintf("%s,w_%d,h_%d,m_%s", o.Kind, o.Width, o.Height, o.Filter.Code())
}
