package domain

import "net/http"

// AuthError is the client-facing error taxonomy for the auth core.
// Handlers map it onto HTTP responses; anything else that escapes the
// service layer is treated as Internal.
type AuthError struct {
	Code    string
	Message string
	Status  int
}

func (e *AuthError) Error() string {
	return e.Message
}

// ErrConflict signals a duplicate registration.
func ErrConflict(msg string) *AuthError {
	return &AuthError{Code: "conflict", Message: msg, Status: http.StatusConflict}
}

// ErrInvalidCredentials signals a failed login. The same value is used
// for unknown emails and wrong passwords so callers cannot tell the
// cases apart.
func ErrInvalidCredentials() *AuthError {
	return &AuthError{Code: "invalid_credentials", Message: "Invalid credentials.", Status: http.StatusUnauthorized}
}

// ErrInvalidRefreshToken covers failed, expired, rotated, and
// logged-out refresh tokens alike.
func ErrInvalidRefreshToken() *AuthError {
	return &AuthError{Code: "invalid_refresh_token", Message: "Invalid refresh token.", Status: http.StatusUnauthorized}
}

// ErrUnauthenticated signals a missing or invalid access token.
func ErrUnauthenticated(msg string) *AuthError {
	return &AuthError{Code: "unauthenticated", Message: msg, Status: http.StatusUnauthorized}
}

// ErrForbidden signals a known identity with an insufficient role.
func ErrForbidden() *AuthError {
	return &AuthError{Code: "forbidden", Message: "Forbidden.", Status: http.StatusForbidden}
}

// ErrInternal hides unexpected collaborator failures from clients.
func ErrInternal() *AuthError {
	return &AuthError{Code: "internal", Message: "Something went wrong.", Status: http.StatusInternalServerError}
}
