package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avicena/wellness-marketplace/internal/model"
)

// Token kinds. Every issued token — access tokens included — carries an
// explicit kind discriminant, and every verification site states which kind
// it expects. That keeps a leaked password-reset token from being replayed
// against resource routes.
const (
	KindAccess        = "access"
	KindRefresh       = "refresh"
	KindPasswordReset = "password_reset"
	KindEmailVerify   = "email_verify"
)

// Fixed iss/aud claims stamped into every token.
const (
	TokenIssuer   = "wellness-marketplace"
	TokenAudience = "wellness-marketplace-api"
)

// ClockSkew is the tolerance applied to the issued-at check.
const ClockSkew = 60 * time.Second

// Default lifetimes per kind.
const (
	DefaultAccessTTL        = 24 * time.Hour
	DefaultRefreshTTL       = 30 * 24 * time.Hour
	DefaultPasswordResetTTL = time.Hour
	DefaultEmailVerifyTTL   = 24 * time.Hour
)

// Claims is the payload of every token the service issues. Access tokens
// fill in role/permissions/verified; the narrower kinds carry only the
// subject (and, for email verification, the address being confirmed).
type Claims struct {
	jwt.RegisteredClaims
	Kind        string   `json:"kind"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	Verified    bool     `json:"verified,omitempty"`
	Email       string   `json:"email,omitempty"`
}

// Issuer mints and verifies HS256 tokens. The signing secret is injected at
// construction and is the single source of truth for both directions; the
// clock is injectable so expiry behavior is testable without sleeping.
type Issuer struct {
	secret []byte
	now    func() time.Time

	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	PasswordResetTTL time.Duration
	EmailVerifyTTL   time.Duration
}

// NewIssuer returns an Issuer with the default per-kind lifetimes.
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret:           []byte(secret),
		now:              time.Now,
		AccessTTL:        DefaultAccessTTL,
		RefreshTTL:       DefaultRefreshTTL,
		PasswordResetTTL: DefaultPasswordResetTTL,
		EmailVerifyTTL:   DefaultEmailVerifyTTL,
	}
}

// WithClock replaces the time source. Intended for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// issue signs a token of the given kind with the issuer's secret.
func (i *Issuer) issue(kind, subject string, ttl time.Duration, fill func(*Claims)) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	}
	if fill != nil {
		fill(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueAccess mints an access token carrying the subject's live role,
// permission set and verified flag at issue time. The middleware still
// re-reads the credential record on every request, so these claims are a
// convenience for clients, not the authorization source of truth.
func (i *Issuer) IssueAccess(u *model.User) (string, time.Time, error) {
	return i.issue(KindAccess, u.ID, i.AccessTTL, func(c *Claims) {
		c.Role = u.Role
		c.Permissions = u.Permissions
		c.Verified = u.Verified
		c.Email = u.Email
	})
}

// IssueRefresh mints a long-lived refresh token carrying only the subject.
func (i *Issuer) IssueRefresh(subjectID string) (string, time.Time, error) {
	return i.issue(KindRefresh, subjectID, i.RefreshTTL, nil)
}

// IssuePasswordReset mints a short-lived reset token for the subject.
func (i *Issuer) IssuePasswordReset(subjectID string) (string, time.Time, error) {
	return i.issue(KindPasswordReset, subjectID, i.PasswordResetTTL, nil)
}

// IssueEmailVerify mints a verification token bound to one email address.
func (i *Issuer) IssueEmailVerify(subjectID, email string) (string, time.Time, error) {
	return i.issue(KindEmailVerify, subjectID, i.EmailVerifyTTL, func(c *Claims) {
		c.Email = email
	})
}

// Verify checks the signature, expiry, issued-at skew, issuer/audience and —
// when expectedKind is non-empty — the kind discriminant. The returned error
// is one of the sentinels in errors.go so callers can branch on the cause.
func (i *Issuer) Verify(token, expectedKind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrMalformedToken
		}
	}
	if claims.Issuer != TokenIssuer || !hasAudience(claims.Audience, TokenAudience) {
		// Signed with our secret but stamped for someone else; not ours.
		return nil, ErrMalformedToken
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(i.now().Add(ClockSkew)) {
		return nil, ErrTokenNotYetValid
	}
	if expectedKind != "" && claims.Kind != expectedKind {
		return nil, ErrWrongKind
	}
	return claims, nil
}

// Decode parses a token WITHOUT verifying its signature. It exists for
// introspection and debug logging only and must never feed an authorization
// decision.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string. Refresh
// tokens are stored hashed so a leaked store dump cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
