package docref

import "errors"

// ErrTypeMismatch reports that a persisted reference value could not be
// interpreted as a record id. It is surfaced at resolution time and is
// distinguishable from an absent target, which resolves to nil without
// error.
var ErrTypeMismatch = errors.New("reference value is not a record id")
