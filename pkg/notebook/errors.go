package notebook

import "errors"

// ErrSourceRejected indicates the remote service accepted the add-source
// call but produced no usable identifier, which is how it signals an
// unsupported input (e.g. a video without a transcript).
var ErrSourceRejected = errors.New("source rejected by remote service")

// ErrGenerationTimeout indicates the polling budget was exhausted before
// an artifact appeared.
var ErrGenerationTimeout = errors.New("timed out waiting for artifact generation")

// ErrMissingFrame indicates a create or add-source response contained no
// payload frame at all. Unlike list/poll operations, these calls cannot
// treat an absent frame as "no data".
var ErrMissingFrame = errors.New("response contained no payload frame")
