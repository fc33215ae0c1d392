package tags

import "errors"

// ErrInvalidTag is returned by Put for an empty key or value.
var ErrInvalidTag = errors.New("tags: key and value must be non-empty")
