package y

import "errors"

var (
	// ErrMalformedUpdate indicates an update byte stream that cannot be parsed.
	ErrMalformedUpdate = errors.New("malformed update")
	// ErrUnknownFormatVersion indicates a frame written by a different codec version.
	ErrUnknownFormatVersion = errors.New("unknown update format version")
	// ErrStructNotFound indicates a lookup for a clock outside the integrated range.
	ErrStructNotFound = errors.New("struct not found")
	// ErrUnexpectedCase indicates a broken internal invariant.
	ErrUnexpectedCase = errors.New("unexpected case")
	// ErrTypeMismatch indicates a root type accessed through two different type kinds.
	ErrTypeMismatch = errors.New("root type already defined with a different kind")
	// ErrIndexOutOfRange indicates a list operation past the end of a type.
	ErrIndexOutOfRange = errors.New("index out of range")
)
