// Package pivrerr defines the typed error kinds surfaced by the pipeline.
package pivrerr

import (
	"errors"
	"fmt"
)

// Kind classifies why a pipeline stage failed.
type Kind string

const (
	InvalidInput             Kind = "invalid_input"
	NoFaceDetected           Kind = "no_face_detected"
	MultipleFaces            Kind = "multiple_faces"
	LandmarkExtractionFailed Kind = "landmark_extraction_failed"
	GeometryFailure          Kind = "geometry_failure"
	EncodingFailed           Kind = "encoding_failed"
	TargetSizeUnachievable   Kind = "target_size_unachievable"
	Timeout                  Kind = "timeout"
	Internal                 Kind = "internal"
)

// Error is the single rich error type propagated throughout the pipeline.
// It carries the failure Kind, the stage that produced it, and the
// underlying cause so callers can both branch on Kind and inspect the
// original error via errors.Unwrap.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a stage-scoped error with no underlying cause.
func New(kind Kind, stage, msg string) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg}
}

// Wrap builds a stage-scoped error that carries an underlying cause.
func Wrap(kind Kind, stage, msg string, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg, Cause: cause}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, otherwise it returns Internal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Internal
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
