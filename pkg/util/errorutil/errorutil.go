package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a failure class raised by key loading, token handling,
// the authentication gate, or credential validation.
type Kind string

const (
	KindInvalidSecretKey     Kind = "INVALID_SECRET_KEY"
	KindKeyFileNotFound      Kind = "KEY_FILE_NOT_FOUND"
	KindKeyFileNotReadable   Kind = "KEY_FILE_NOT_READABLE"
	KindInvalidKeyFormat     Kind = "INVALID_KEY_FORMAT"
	KindPrivateKeyLoadFailed Kind = "PRIVATE_KEY_LOAD_FAILED"
	KindPublicKeyLoadFailed  Kind = "PUBLIC_KEY_LOAD_FAILED"
	KindTokenExpired         Kind = "TOKEN_EXPIRED"
	KindTokenInvalid         Kind = "TOKEN_INVALID"
	KindTokenMissing         Kind = "TOKEN_MISSING"
	KindPrincipalNotFound    Kind = "PRINCIPAL_NOT_FOUND"
	KindInvalidCredentials   Kind = "INVALID_CREDENTIALS"
	KindAccessDenied         Kind = "ACCESS_DENIED"
	KindInvalidEmailFormat   Kind = "INVALID_EMAIL_FORMAT"
	KindDuplicateEmail       Kind = "DUPLICATE_EMAIL"
	KindWeakPassword         Kind = "WEAK_PASSWORD"
	KindValidationFailed     Kind = "VALIDATION_FAILED"
	KindNotFound             Kind = "NOT_FOUND"
	KindInternalError        Kind = "INTERNAL_ERROR"
)

// Entry maps a failure kind to its stable, client-safe rendering.
type Entry struct {
	Kind           Kind
	Type           string
	Code           string
	Title          string
	Status         int
	DefaultMessage string
}

const (
	typeConfiguration  = "CONFIGURATION_ERROR"
	typeAuthentication = "AUTHENTICATION_ERROR"
	typeAuthorization  = "AUTHORIZATION_ERROR"
	typeValidation     = "VALIDATION_ERROR"
	typeResource       = "RESOURCE_ERROR"
	typeInternal       = "INTERNAL_ERROR"
)

// taxonomy is the static table consulted by every responder. It must stay
// exhaustive over the Kind constants above.
var taxonomy = map[Kind]Entry{
	KindInvalidSecretKey:     {KindInvalidSecretKey, typeConfiguration, "KEY.INVALID_SECRET", "Invalid Secret Key", http.StatusInternalServerError, "The signing secret is missing, malformed, or too short."},
	KindKeyFileNotFound:      {KindKeyFileNotFound, typeConfiguration, "KEY.FILE_NOT_FOUND", "Key File Not Found", http.StatusInternalServerError, "The configured key file does not exist."},
	KindKeyFileNotReadable:   {KindKeyFileNotReadable, typeConfiguration, "KEY.FILE_NOT_READABLE", "Key File Not Readable", http.StatusInternalServerError, "The configured key file could not be read."},
	KindInvalidKeyFormat:     {KindInvalidKeyFormat, typeConfiguration, "KEY.INVALID_FORMAT", "Invalid Key Format", http.StatusInternalServerError, "The key file is not valid base64-encoded PEM."},
	KindPrivateKeyLoadFailed: {KindPrivateKeyLoadFailed, typeConfiguration, "KEY.PRIVATE_LOAD_FAILED", "Private Key Load Failed", http.StatusInternalServerError, "The private key could not be parsed."},
	KindPublicKeyLoadFailed:  {KindPublicKeyLoadFailed, typeConfiguration, "KEY.PUBLIC_LOAD_FAILED", "Public Key Load Failed", http.StatusInternalServerError, "The public key could not be parsed."},
	KindTokenExpired:         {KindTokenExpired, typeAuthentication, "AUTH.TOKEN_EXPIRED", "Token Expired", http.StatusUnauthorized, "The access token has expired. Obtain a new token via the refresh flow."},
	KindTokenInvalid:         {KindTokenInvalid, typeAuthentication, "AUTH.TOKEN_INVALID", "Token Invalid", http.StatusUnauthorized, "The access token is malformed or its signature could not be verified."},
	KindTokenMissing:         {KindTokenMissing, typeAuthentication, "AUTH.TOKEN_MISSING", "Token Missing", http.StatusUnauthorized, "Authentication is required to access this resource."},
	KindPrincipalNotFound:    {KindPrincipalNotFound, typeAuthentication, "AUTH.PRINCIPAL_NOT_FOUND", "Unknown Principal", http.StatusUnauthorized, "The token subject does not match any known account."},
	KindInvalidCredentials:   {KindInvalidCredentials, typeAuthentication, "AUTH.INVALID_CREDENTIALS", "Invalid Credentials", http.StatusUnauthorized, "The provided credentials are invalid."},
	KindAccessDenied:         {KindAccessDenied, typeAuthorization, "AUTH.ACCESS_DENIED", "Access Denied", http.StatusForbidden, "You do not have permission to access this resource."},
	KindInvalidEmailFormat:   {KindInvalidEmailFormat, typeValidation, "USER.INVALID_EMAIL", "Invalid Email", http.StatusBadRequest, "The email address is not in a valid format."},
	KindDuplicateEmail:       {KindDuplicateEmail, typeValidation, "USER.DUPLICATE_EMAIL", "Email Already Registered", http.StatusConflict, "The email address is already in use."},
	KindWeakPassword:         {KindWeakPassword, typeValidation, "USER.WEAK_PASSWORD", "Weak Password", http.StatusBadRequest, "The password does not meet the strength requirements."},
	KindValidationFailed:     {KindValidationFailed, typeValidation, "REQUEST.VALIDATION_FAILED", "Validation Failed", http.StatusBadRequest, "The request payload failed validation."},
	KindNotFound:             {KindNotFound, typeResource, "RESOURCE.NOT_FOUND", "Not Found", http.StatusNotFound, "The requested resource does not exist."},
	KindInternalError:        {KindInternalError, typeInternal, "SERVER.INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError, "An unexpected error occurred."},
}

// Lookup returns the taxonomy entry for kind, falling back to the internal
// error entry so no failure path lacks a renderable response.
func Lookup(kind Kind) Entry {
	if entry, ok := taxonomy[kind]; ok {
		return entry
	}
	return taxonomy[KindInternalError]
}

// Entries returns a copy of the full taxonomy table.
func Entries() []Entry {
	out := make([]Entry, 0, len(taxonomy))
	for _, entry := range taxonomy {
		out = append(out, entry)
	}
	return out
}

// AuthError is a failure value carrying its taxonomy kind. Responders branch
// on the kind rather than on error message wording.
type AuthError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = Lookup(e.Kind).DefaultMessage
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, detail)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Entry resolves the taxonomy entry for this error.
func (e *AuthError) Entry() Entry {
	return Lookup(e.Kind)
}

// New builds an AuthError with an optional detail override.
func New(kind Kind, detail string) *AuthError {
	return &AuthError{Kind: kind, Detail: detail}
}

// Wrap builds an AuthError preserving the underlying cause.
func Wrap(kind Kind, detail string, err error) *AuthError {
	return &AuthError{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the taxonomy kind from err, defaulting to INTERNAL_ERROR
// for anything that is not an AuthError.
func KindOf(err error) Kind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindInternalError
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
