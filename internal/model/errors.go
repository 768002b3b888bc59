package model

import "errors"

// ErrDuplicate is returned by repositories when an insert violates a
// uniqueness rule, e.g. a second enrollment in the same course.
var ErrDuplicate = errors.New("duplicate record")
