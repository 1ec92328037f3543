package services

import (
	"errors"
	"fmt"
)

type IngestionErrorKind string

const (
	ErrKindUnsupportedFormat   IngestionErrorKind = "unsupported_format"
	ErrKindFileTooLarge        IngestionErrorKind = "file_too_large"
	ErrKindEmptyContent        IngestionErrorKind = "empty_content"
	ErrKindWorkerInitFailure   IngestionErrorKind = "worker_init_failure"
	ErrKindInvalidDocument     IngestionErrorKind = "invalid_document"
	ErrKindUnknownParseFailure IngestionErrorKind = "unknown_parse_failure"
	ErrKindReadFailure         IngestionErrorKind = "read_failure"
)

// IngestionError is the only error type returned by the Ingestor. Message is safe to show
// to the user; err keeps the underlying cause for logs.
type IngestionError struct {
	Kind    IngestionErrorKind
	Message string
	err     error
}

func (e *IngestionError) Error() string {
	return e.Message
}

func (e *IngestionError) Unwrap() error {
	return e.err
}

// Is matches any *IngestionError with the same Kind, so sentinels below work with errors.Is.
func (e *IngestionError) Is(target error) bool {
	var t *IngestionError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func newIngestionError(kind IngestionErrorKind, message string, cause error) *IngestionError {
	return &IngestionError{Kind: kind, Message: message, err: cause}
}

var (
	ErrUnsupportedFormat   = &IngestionError{Kind: ErrKindUnsupportedFormat, Message: "unsupported format"}
	ErrFileTooLarge        = &IngestionError{Kind: ErrKindFileTooLarge, Message: "file too large"}
	ErrEmptyContent        = &IngestionError{Kind: ErrKindEmptyContent, Message: "empty content"}
	ErrWorkerInitFailure   = &IngestionError{Kind: ErrKindWorkerInitFailure, Message: "pdf engine initialization failed"}
	ErrInvalidDocument     = &IngestionError{Kind: ErrKindInvalidDocument, Message: "invalid document"}
	ErrUnknownParseFailure = &IngestionError{Kind: ErrKindUnknownParseFailure, Message: "unknown parse failure"}
	ErrReadFailure         = &IngestionError{Kind: ErrKindReadFailure, Message: "read failure"}
)

type CompletionErrorKind string

const (
	ErrKindUnauthorized   CompletionErrorKind = "unauthorized"
	ErrKindRateLimited    CompletionErrorKind = "rate_limited"
	ErrKindHTTPError      CompletionErrorKind = "http_error"
	ErrKindNetworkFailure CompletionErrorKind = "network_failure"
)

// CompletionError classifies a failed completion. StatusCode and Body are set whenever a
// response was received.
type CompletionError struct {
	Kind       CompletionErrorKind
	Provider   string
	StatusCode int
	Body       string
	err        error
}

func (e *CompletionError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s completion failed (%s): http %d: %s", e.Provider, e.Kind, e.StatusCode, e.Body)
	case e.err != nil:
		return fmt.Sprintf("%s completion failed (%s): %v", e.Provider, e.Kind, e.err)
	default:
		return fmt.Sprintf("%s completion failed (%s)", e.Provider, e.Kind)
	}
}

func (e *CompletionError) Unwrap() error {
	return e.err
}

func (e *CompletionError) Is(target error) bool {
	var t *CompletionError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

var (
	ErrUnauthorized   = &CompletionError{Kind: ErrKindUnauthorized}
	ErrRateLimited    = &CompletionError{Kind: ErrKindRateLimited}
	ErrHTTPError      = &CompletionError{Kind: ErrKindHTTPError}
	ErrNetworkFailure = &CompletionError{Kind: ErrKindNetworkFailure}
)

// classifyStatus maps a non-2xx HTTP status onto the completion taxonomy.
func classifyStatus(provider string, status int, body string) *CompletionError {
	kind := ErrKindHTTPError
	switch status {
	case 401, 403:
		kind = ErrKindUnauthorized
	case 429:
		kind = ErrKindRateLimited
	}
	return &CompletionError{Kind: kind, Provider: provider, StatusCode: status, Body: body}
}
