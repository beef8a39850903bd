package artifact

import "errors"

var (
	// ErrMissingPayload is returned when no payload was submitted.
	ErrMissingPayload = errors.New("missing payload")
	// ErrInvalidPayload is returned for anything that is not an embedded
	// base64 PNG or JPEG image.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrPrintFailed wraps print command failures.
	ErrPrintFailed = errors.New("print failed")
	// ErrPdfGenerationFailed wraps PDF encoding and write failures.
	ErrPdfGenerationFailed = errors.New("pdf generation failed")
	// ErrStorage wraps failures to persist the image itself.
	ErrStorage = errors.New("storage failed")
)

// Error is a pipeline failure: Kind is one of the sentinels above, Err
// the underlying diagnostic.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Details returns the diagnostic text without the kind.
func (e *Error) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func wrap(kind, err error) error {
	return &Error{Kind: kind, Err: err}
}
