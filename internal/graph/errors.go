package graph

import "errors"

var (
	ErrDuplicateID  = errors.New("graph: primitive id already in data set")
	ErrWrongDataSet = errors.New("graph: primitive belongs to another data set")
	ErrNotInDataSet = errors.New("graph: primitive not in data set")
	ErrHasReferrers = errors.New("graph: primitive is still referenced")
)
