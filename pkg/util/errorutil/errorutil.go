package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how they are surfaced to the caller.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindPlatform      Kind = "platform"
	KindValidation    Kind = "validation"
	KindInternal      Kind = "internal"
)

const (
	CodeNotConfigured        = "NOT_CONFIGURED"
	CodeCategoryMissing      = "CATEGORY_MISSING"
	CodeTicketChannelMissing = "TICKET_CHANNEL_MISSING"
	CodeForbidden            = "FORBIDDEN"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeAlreadyOpen          = "ALREADY_OPEN"
	CodeAlreadyMember        = "ALREADY_MEMBER"
	CodeTicketArchived       = "TICKET_ARCHIVED"
	CodeTicketDeleted        = "TICKET_DELETED"
	CodeNotAThread           = "NOT_A_THREAD"
	CodePlatformUnavailable  = "PLATFORM_UNAVAILABLE"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Kind       Kind
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks. Never return these directly; use the constructors.
var (
	ErrNotConfigured        = &DomainError{Code: CodeNotConfigured}
	ErrCategoryMissing      = &DomainError{Code: CodeCategoryMissing}
	ErrTicketChannelMissing = &DomainError{Code: CodeTicketChannelMissing}
	ErrForbidden            = &DomainError{Code: CodeForbidden}
	ErrAlreadyOpen          = &DomainError{Code: CodeAlreadyOpen}
	ErrAlreadyMember        = &DomainError{Code: CodeAlreadyMember}
	ErrTicketArchived       = &DomainError{Code: CodeTicketArchived}
	ErrTicketDeleted        = &DomainError{Code: CodeTicketDeleted}
	ErrNotAThread           = &DomainError{Code: CodeNotAThread}
	ErrPlatformUnavailable  = &DomainError{Code: CodePlatformUnavailable}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code string, kind Kind, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Kind: kind, Message: message, HTTPStatus: status, Details: details}
}

func NewNotConfigured() error {
	return NewDomainError(CodeNotConfigured, KindConfiguration,
		"ticket system is not set up yet, ask an admin to run setup", http.StatusPreconditionFailed, nil)
}

func NewCategoryMissing(categoryID string) error {
	return NewDomainError(CodeCategoryMissing, KindConfiguration,
		"ticket category not found", http.StatusPreconditionFailed, map[string]any{"category_id": categoryID})
}

func NewTicketChannelMissing(channelID string) error {
	return NewDomainError(CodeTicketChannelMissing, KindConfiguration,
		"ticket channel not found", http.StatusPreconditionFailed, map[string]any{"channel_id": channelID})
}

// NewForbidden never carries details about which rule failed.
func NewForbidden() error {
	return NewDomainError(CodeForbidden, KindAuthorization, "not enough permissions", http.StatusForbidden, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, KindAuthorization, message, http.StatusUnauthorized, nil)
}

func NewAlreadyOpen(ticketID string) error {
	return NewDomainError(CodeAlreadyOpen, KindState,
		"you already have an open ticket", http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewAlreadyMember(ticketID, userID string) error {
	return NewDomainError(CodeAlreadyMember, KindState,
		"user is already in this ticket", http.StatusConflict, map[string]any{"ticket_id": ticketID, "user_id": userID})
}

func NewTicketArchived(ticketID string) error {
	return NewDomainError(CodeTicketArchived, KindState,
		"ticket is closed", http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewTicketDeleted(ticketID string) error {
	return NewDomainError(CodeTicketDeleted, KindState,
		"ticket no longer exists", http.StatusGone, map[string]any{"ticket_id": ticketID})
}

func NewNotAThread(channelID string) error {
	return NewDomainError(CodeNotAThread, KindState,
		"this command is only usable in ticket threads", http.StatusBadRequest, map[string]any{"channel_id": channelID})
}

func NewPlatformUnavailable(op string, err error) error {
	return &DomainError{
		Code:       CodePlatformUnavailable,
		Kind:       KindPlatform,
		Message:    op + " failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, KindValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, KindState, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Kind:       KindInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// CodeOf returns the error code, or "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}

func MapError(err error) error {
	return ToDomainError(err)
}
