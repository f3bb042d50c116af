package balance

import "errors"

// Input validation failures. All are detected before any scoring begins and
// abort the analysis call.
var (
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrInvalidInterval   = errors.New("invalid interval: start must precede end")
	ErrMalformedRange    = errors.New("event extends partially outside the analysis window")
	ErrEmptyWindow       = errors.New("analysis window end precedes start")
)
