package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type Claims struct {
	jwt.RegisteredClaims
}

// SessionSource resolves the session for an authenticated user id.
type SessionSource interface {
	Session(ctx context.Context, userID uuid.UUID) (*tenant.Session, error)
}

type JWTMiddleware struct {
	secret   []byte
	sessions SessionSource
}

func NewJWTMiddleware(secret string, sessions SessionSource) *JWTMiddleware {
	return &JWTMiddleware{
		secret:   []byte(secret),
		sessions: sessions,
	}
}

func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			respond.Error(w, r, apperr.ErrUnauthenticated)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			respond.Error(w, r, apperr.ErrUnauthenticated.Wrap(err))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			respond.Error(w, r, apperr.ErrUnauthenticated.Wrap(err))
			return
		}

		sess, err := m.sessions.Session(r.Context(), userID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithSession(r.Context(), sess)))
	})
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
