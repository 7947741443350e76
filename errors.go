package shmbus

import "github.com/shmbus/shmbus/internal/shmerr"

// Kind classifies a construction or programmer-error failure. Empty
// and full are never represented as errors — Produce and Consume
// return a plain bool for those.
type Kind = shmerr.Kind

const (
	InvalidArgument = shmerr.InvalidArgument
	OutOfRange      = shmerr.OutOfRange
	PayloadTooLarge = shmerr.PayloadTooLarge
	NotFound        = shmerr.NotFound
	Incompatible    = shmerr.Incompatible
	IO              = shmerr.IO
)

// Error is the concrete error type returned by this package's
// construction and programmer-error paths.
type Error = shmerr.Error
