package yamdb

import (
	"database/sql"
	stderrors "errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeValidation         = "VALIDATION_ERROR"
	TextCodeConflict           = "CONFLICT"
	TextCodeNotFound           = "NOT_FOUND"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeAuthRequired       = "AUTHENTICATION_REQUIRED"
	TextCodePermissionDenied   = "PERMISSION_DENIED"
	TextCodeNotification       = "NOTIFICATION_FAILED"
)

// ErrValidation is returned for malformed input. Offending fields are listed
// under the "fields" metadata key.
var ErrValidation = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrConflict is returned when a uniqueness constraint is violated.
var ErrConflict = goerrors.New("resource already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeConflict).
	WithCode(goerrors.CodeBadRequest)

// ErrNotFound is returned for unknown users, titles, reviews and the like.
var ErrNotFound = goerrors.New("resource not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCredentials is returned when a confirmation code does not verify.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenMalformed is returned for tokens that fail signature or claim checks.
var ErrTokenMalformed = goerrors.New("invalid access token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiration.
var ErrTokenExpired = goerrors.New("access token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthenticationRequired is returned when an anonymous actor attempts an
// operation that needs an identity.
var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrPermissionDenied is returned when the actor is known but not allowed.
var ErrPermissionDenied = goerrors.New("permission denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied).
	WithCode(goerrors.CodeForbidden)

// ValidationError builds a validation error listing the offending fields.
func ValidationError(fields map[string]string) *goerrors.Error {
	return withMetadata(ErrValidation, map[string]any{"fields": fields})
}

// ConflictError builds a conflict error for the given field.
func ConflictError(field, message string) *goerrors.Error {
	return withMetadata(ErrConflict, map[string]any{
		"fields": map[string]string{field: message},
	})
}

// NotFoundError builds a not found error for the given resource.
func NotFoundError(resource, identifier string) *goerrors.Error {
	return withMetadata(ErrNotFound, map[string]any{
		"resource":   resource,
		"identifier": identifier,
	})
}

func withMetadata(base *goerrors.Error, meta map[string]any) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	return clone.WithMetadata(meta)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	return hasTextCode(err, TextCodeConflict)
}

// IsNotFound reports whether err describes a missing resource.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsInvalidCredentials reports whether err is a credential failure, either a
// bad confirmation code or an invalid/expired token.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials) ||
		hasTextCode(err, TextCodeTokenInvalid) ||
		hasTextCode(err, TextCodeTokenExpired)
}

// IsAuthenticationRequired reports whether err asks the caller to authenticate.
func IsAuthenticationRequired(err error) bool {
	return hasTextCode(err, TextCodeAuthRequired)
}

// IsPermissionDenied reports whether err is an authorization failure.
func IsPermissionDenied(err error) bool {
	return hasTextCode(err, TextCodePermissionDenied)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, TextCodeTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// ErrorFields returns the field map attached to a validation or conflict error.
func ErrorFields(err error) map[string]string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata == nil {
		return nil
	}
	fields, _ := richErr.Metadata["fields"].(map[string]string)
	return fields
}

func isRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

func internalError(err error, message string) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message)
}
