package tenant

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
)

// Session is the authenticated caller as seen by every scoped operation.
type Session struct {
	UserID      uuid.UUID       `json:"id"`
	ProviderID  uuid.UUID       `json:"provider_id"`
	UserType    models.UserType `json:"user_type"`
	RoleID      *uuid.UUID      `json:"role_id,omitempty"`
	Permissions []string        `json:"permissions"`
}

// IsOwner reports whether the caller is the provider account itself.
func (s *Session) IsOwner() bool {
	return s.UserID == s.ProviderID
}

// Can reports whether the caller holds perm. Provider owners hold everything.
func (s *Session) Can(perm string) bool {
	if s.IsOwner() {
		return true
	}
	return slices.Contains(s.Permissions, perm)
}

// Direct scopes rows by their own provider column.
func (s *Session) Direct() query.Scope {
	return query.Direct("t.provider_id", s.ProviderID)
}

// ViaCreator scopes rows by their creator's account provider.
func (s *Session) ViaCreator() query.Scope {
	return query.ViaCreator("t.created_by", s.ProviderID)
}

type contextKey string

const sessionCtxKey contextKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey).(*Session)
	return s
}

func ProviderFromContext(ctx context.Context) uuid.UUID {
	if s := FromContext(ctx); s != nil {
		return s.ProviderID
	}
	return uuid.Nil
}
