// Package auth implements the token and credential primitives shared by the
// middleware and the auth handlers: HS256 token issuing/verification with
// distinct token kinds, and PBKDF2 password hashing.
package auth

import "errors"

// Verification failures are distinct so callers can branch (or log) on the
// specific cause. Handlers collapse all of them to a generic 401 body; the
// distinction is for logs, never for API responses.
var (
	// ErrMalformedToken means the input is structurally not a token at all.
	ErrMalformedToken = errors.New("auth: malformed token")
	// ErrSignatureInvalid means a well-formed token failed the HMAC check.
	ErrSignatureInvalid = errors.New("auth: invalid token signature")
	// ErrTokenExpired means exp is in the past.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenNotYetValid means iat is further in the future than the
	// allowed clock skew.
	ErrTokenNotYetValid = errors.New("auth: token not yet valid")
	// ErrWrongKind means the token verified but carries a different kind
	// discriminant than the endpoint expects (e.g. a refresh token presented
	// where an access token is required).
	ErrWrongKind = errors.New("auth: wrong token kind")
)
