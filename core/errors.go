package core

import "errors"

var (
	// ErrNoDopplerCrossing means the doppler sign never changes across the
	// orbit records: the ground point is outside the imaged time window.
	ErrNoDopplerCrossing = errors.New("no zero-doppler crossing in orbit records")
	// ErrEmptyGCPSet is returned by inverse geolocation when no GCP is loaded.
	ErrEmptyGCPSet = errors.New("empty GCP set")
	// ErrMissingOrMismatchedCoefficients flags coordinate conversion records
	// without coefficients or with unequal coefficient counts.
	ErrMissingOrMismatchedCoefficients = errors.New("missing or mismatched coordinate conversion coefficients")
	// ErrInsufficientOrbit is returned when fewer than two orbit records exist.
	ErrInsufficientOrbit = errors.New("at least two orbit records are required")
	// ErrNoBursts is returned when a model has no burst record.
	ErrNoBursts = errors.New("at least one burst record is required")
	// ErrInvalidParameter flags unusable scalars or unsorted orbit records.
	ErrInvalidParameter = errors.New("invalid SAR parameter")
	// ErrLineOutsideDeburst is returned for image lines dropped by deburst.
	ErrLineOutsideDeburst = errors.New("line is outside every kept deburst range")
	// ErrBurstIndex is returned by BurstExtraction for a missing burst.
	ErrBurstIndex = errors.New("burst index out of range")
)
