package load

import "errors"

var (
	ErrUnsupportedFormat = errors.New("load: unsupported format")
	ErrNoGeometry        = errors.New("load: no geometries found")
)
