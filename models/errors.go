package models

import "errors"

// ErrMethodNotAllowed is returned for a known path requested with the wrong verb.
var ErrMethodNotAllowed = errors.New("method not allowed")

// ValidationError reports client input that can be corrected and resubmitted.
// Message is safe to show to the client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UploadError wraps a failure of the image host.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "upload image: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

// StorageError wraps a failure of the record store. Op names the statement
// that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }
