package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"syscall"
)

// Category classifies the failure behind a degraded result. Nothing in this
// module surfaces these as caller-visible errors; categories only enrich log
// lines and telemetry properties.
type Category string

const (
	// CategoryTransport - network failures and non-2xx backend responses.
	CategoryTransport Category = "transport"
	// CategorySchema - response or document bodies that do not match the expected shape.
	CategorySchema Category = "schema"
	// CategoryFilesystem - local state files that cannot be read or written.
	CategoryFilesystem Category = "filesystem"
	// CategoryReference - configuration references to entities that do not exist.
	CategoryReference Category = "reference"
	// CategoryUnknown - anything the classifier cannot place.
	CategoryUnknown Category = "unknown"
)

// TransportError represents a failed exchange with the Builder backend.
type TransportError struct {
	Err        error
	Endpoint   string
	StatusCode int // zero when the request never produced a response
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SchemaError represents a body that decoded to something other than the
// expected shape.
type SchemaError struct {
	Err    error
	Source string // endpoint path or file path the body came from
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected shape from %s: %v", e.Source, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// FilesystemError represents a failed read or write of a local state file.
type FilesystemError struct {
	Err  error
	Path string
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem access to %s failed: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// ReferenceError represents a configuration value naming an entity that is
// not present, such as a provider selector pointing at a missing entry.
// Callers treat the condition as a no-op; the type exists for diagnostics.
type ReferenceError struct {
	Kind string
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NewTransport wraps a failed backend exchange.
func NewTransport(endpoint string, statusCode int, err error) *TransportError {
	return &TransportError{Err: err, Endpoint: endpoint, StatusCode: statusCode}
}

// NewSchema wraps a malformed body.
func NewSchema(source string, err error) *SchemaError {
	return &SchemaError{Err: err, Source: source}
}

// NewFilesystem wraps a failed file access.
func NewFilesystem(path string, err error) *FilesystemError {
	return &FilesystemError{Err: err, Path: path}
}

// NewReference marks a dangling configuration reference.
func NewReference(kind, id string) *ReferenceError {
	return &ReferenceError{Kind: kind, ID: id}
}

// Classify places an error in the degradation taxonomy. Explicitly wrapped
// errors win; otherwise the concrete error chain is inspected.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return CategoryTransport
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return CategorySchema
	}
	var fsErr *FilesystemError
	if errors.As(err, &fsErr) {
		return CategoryFilesystem
	}
	var refErr *ReferenceError
	if errors.As(err, &refErr) {
		return CategoryReference
	}

	if isNetworkError(err) {
		return CategoryTransport
	}
	if isDecodeError(err) {
		return CategorySchema
	}
	if isFilesystemError(err) {
		return CategoryFilesystem
	}
	return CategoryUnknown
}

// IsSuccessStatus reports whether an HTTP status code counts as a successful
// backend response.
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE,
			syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return true
		}
	}
	return false
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

func isFilesystemError(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
