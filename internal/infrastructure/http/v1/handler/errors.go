package handler

import (
	"errors"
	"fmt"
)

var ErrMissingBBox = errors.New("bbox query parameter is required, like: bbox=37.3,55.5,37.9,55.9")

// PathParseError is the only tile request failure answered with 400.
type PathParseError struct {
	Segment string
	Err     error
}

func (e *PathParseError) Error() string {
	return fmt.Sprintf("Error parsing last path component %q into number, expected something like `123.png`: %v", e.Segment, e.Err)
}

func (e *PathParseError) Unwrap() error {
	return e.Err
}
