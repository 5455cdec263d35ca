package helper

import (
	"errors"
	"fmt"
)

// Error kinds of the enrichment pipeline. Use errors.Is to classify a failure.
var (
	ErrManifestUnavailable = errors.New("manifest unavailable")
	ErrManifestSchema      = errors.New("manifest schema error")
	ErrImageUnavailable    = errors.New("image unavailable")
	ErrOcrFailure          = errors.New("ocr failure")
	ErrNlpFailure          = errors.New("nlp failure")
	ErrExportIO            = errors.New("export io failure")
	ErrOutputDir           = errors.New("output directory unavailable")
)

// broader maps a kind to the kind it also matches. A manifest that fails its
// schema is as unusable as one that could not be fetched.
var broader = map[error]error{
	ErrManifestSchema: ErrManifestUnavailable,
}

// Error wraps an error with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

// NewError wraps err with the operation name. It returns nil if err is nil.
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindError attaches one of the pipeline error kinds to a cause.
type KindError struct {
	Kind   error
	Detail string
	Err    error
}

// Kind builds an error matching both kind and err with errors.Is.
func Kind(kind error, detail string, err error) error {
	return &KindError{Kind: kind, Detail: detail, Err: err}
}

func (e *KindError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return e.Kind.Error()
}

func (e *KindError) Unwrap() []error {
	errs := []error{e.Kind}
	if parent, ok := broader[e.Kind]; ok {
		errs = append(errs, parent)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsPageLocal reports whether err only affects a single page and can be skipped.
func IsPageLocal(err error) bool {
	return errors.Is(err, ErrImageUnavailable) ||
		errors.Is(err, ErrOcrFailure) ||
		errors.Is(err, ErrNlpFailure) ||
		errors.Is(err, ErrExportIO)
}
