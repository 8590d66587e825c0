package models

import "errors"

// ErrLocationUnavailable is reported when a point is added before the
// current position is known. Nothing is inserted.
var ErrLocationUnavailable = errors.New("current location is not available yet")
