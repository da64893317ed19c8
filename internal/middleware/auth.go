package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// Claims is the JWT payload: the subject is the user's UUID and staff marks
// administrative accounts.
type Claims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

type callerKey struct{}

type callerSlotKey struct{}

// callerSlot lets the request logger see the caller resolved further down.
type callerSlot struct {
	caller domain.Caller
	set    bool
}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	if slot, ok := ctx.Value(callerSlotKey{}).(*callerSlot); ok {
		slot.caller, slot.set = c, true
	}
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the authenticated caller stored by Authenticator.
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(domain.Caller)
	return c, ok
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator constructs an Authenticator. issuer may be empty, in which
// case the iss claim is not checked.
func NewAuthenticator(secret []byte, issuer string) *Authenticator {
	return &Authenticator{secret: secret, issuer: issuer}
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the caller in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		c, err := a.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}

// Verify parses a signed token and returns the caller it names.
func (a *Authenticator) Verify(raw string) (domain.Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("middleware.Authenticator.Verify: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("middleware.Authenticator.Verify: subject: %w", err)
	}
	return domain.Caller{UserID: id, IsStaff: claims.Staff}, nil
}

// Issue signs a token for c valid for ttl from now. The API itself never
// issues tokens; this serves tests and local tooling.
func (a *Authenticator) Issue(c domain.Caller, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Staff: c.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("middleware.Authenticator.Issue: %w", err)
	}
	return signed, nil
}

// RequireStaff rejects non-staff callers with 403. It must run after
// Authenticator.Middleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		if !c.IsStaff {
			writeError(w, http.StatusForbidden, "forbidden", "staff only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
