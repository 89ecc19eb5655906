package domain

import "errors"

var (
	// ErrInputNotReady means a submission was attempted before both the image
	// and the location were available.
	ErrInputNotReady = errors.New("image and location are required before submitting")

	// ErrValidatorNotReady means the image classifier has not finished loading.
	// Callers should retry shortly.
	ErrValidatorNotReady = errors.New("image validator is still loading, try again shortly")

	// ErrValidationRejected means the classifier did not recognize a water body.
	ErrValidationRejected = errors.New("image does not look like a water body")

	// ErrSubmitInProgress means another submission holds the capture flow.
	ErrSubmitInProgress = errors.New("a submission is already in progress")

	// ErrStaleAttempt means the draft image changed while its classification
	// was in flight, so the result was discarded.
	ErrStaleAttempt = errors.New("capture attempt superseded by a newer image")

	ErrEmptyImage           = errors.New("image is empty")
	ErrInvalidCoordinate    = errors.New("coordinate out of range")
	ErrUnknownWaterBodyType = errors.New("unknown water body type")
	ErrUnknownCity          = errors.New("unknown city")
	ErrUnknownDestination   = errors.New("unknown destination")
)
