package podcast

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
)

// Common podcast errors.
var (
	// ErrAPIKeyRequired indicates no API key was configured.
	ErrAPIKeyRequired = errors.New("OpenAI API key is required")

	// ErrTextRequired indicates there is no input text to work from.
	ErrTextRequired = errors.New("no input text")

	// ErrScriptRequired indicates a refine or speak step got an empty script.
	ErrScriptRequired = errors.New("no podcast script")

	// ErrFeedbackRequired indicates a refine step got no feedback.
	ErrFeedbackRequired = errors.New("no refinement feedback")

	// ErrEmptyResult indicates the model returned no content.
	ErrEmptyResult = errors.New("AI returned an empty result")

	// ErrUnknownOption indicates a model, voice or template name did not
	// resolve.
	ErrUnknownOption = errors.New("unknown option")

	// ErrEndpointPlaceholder indicates the endpoint URL still contains
	// template placeholders such as {region}.
	ErrEndpointPlaceholder = errors.New("endpoint requires additional configuration, replace the placeholders in the URL")

	// ErrEndpointURLRequired indicates the custom endpoint has no URL.
	ErrEndpointURLRequired = errors.New("custom endpoint requires a URL")

	// ErrUnsupportedFile indicates an input file is not text or markdown.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrNoFiles indicates no usable input files were found.
	ErrNoFiles = errors.New("no valid files were found")

	// ErrInvalidParameter indicates a generation parameter is out of range.
	ErrInvalidParameter = errors.New("invalid generation parameter")
)

// ErrorCode classifies API failures.
type ErrorCode string

const (
	CodeAuth      ErrorCode = "AUTH"
	CodeRateLimit ErrorCode = "RATE_LIMIT"
	CodeUpstream  ErrorCode = "UPSTREAM"
	CodeEmpty     ErrorCode = "EMPTY_RESULT"
	CodeTimeout   ErrorCode = "TIMEOUT"
	CodeCanceled  ErrorCode = "CANCELED"
	CodeTransport ErrorCode = "TRANSPORT"
)

// Error is an API failure with a user-facing message.
type Error struct {
	Code    ErrorCode
	Message string
	Status  int
	Op      string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether repeating the request may succeed.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case CodeRateLimit, CodeTimeout, CodeTransport:
		return true
	case CodeUpstream:
		return e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsFatal reports whether the whole run should stop, such as on a bad key.
func (e *Error) IsFatal() bool {
	return e.Code == CodeAuth
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == CodeAuth
}

// WrapAPIError converts a client error into an *Error. Nil stays nil.
func WrapAPIError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return &Error{Code: CodeAuth, Status: apiErr.StatusCode, Op: op,
				Message: "Authentication error. Check your API key.", Cause: err}
		case http.StatusTooManyRequests:
			return &Error{Code: CodeRateLimit, Status: apiErr.StatusCode, Op: op,
				Message: "Rate limit or quota exceeded.", Cause: err}
		default:
			return &Error{Code: CodeUpstream, Status: apiErr.StatusCode, Op: op,
				Message: fmt.Sprintf("API request failed with status %d", apiErr.StatusCode), Cause: err}
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeCanceled, Op: op, Message: "request canceled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeTimeout, Op: op, Message: "request timed out", Cause: err}
	default:
		return &Error{Code: CodeTransport, Op: op, Message: "request failed", Cause: err}
	}
}

// emptyResult builds the error for a blank completion, e.g. "summary".
func emptyResult(op, what string) error {
	return &Error{
		Code:    CodeEmpty,
		Op:      op,
		Message: fmt.Sprintf("AI returned an empty %s.", what),
		Cause:   ErrEmptyResult,
	}
}
