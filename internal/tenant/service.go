package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/cache"
	"github.com/nikhilbhutani/staffdesk/internal/database"
)

// Service resolves sessions from the users table, caching them in redis.
type Service struct {
	db    database.DBTX
	cache *cache.Cache
	ttl   time.Duration
}

func NewService(db database.DBTX, c *cache.Cache, ttl time.Duration) *Service {
	return &Service{db: db, cache: c, ttl: ttl}
}

func sessionKey(userID uuid.UUID) string { return "session:" + userID.String() }

func roleKey(roleID uuid.UUID) string { return "role-sessions:" + roleID.String() }

func (s *Service) Session(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if s.cache != nil {
		var cached Session
		err := s.cache.Get(ctx, sessionKey(userID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !cache.IsMiss(err) {
			slog.Warn("session cache read failed", "user_id", userID, "error", err)
		}
	}

	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionKey(userID), sess, s.ttl); err != nil {
			slog.Warn("session cache write failed", "user_id", userID, "error", err)
		} else if sess.RoleID != nil {
			_ = s.cache.Track(ctx, roleKey(*sess.RoleID), sessionKey(userID), s.ttl)
		}
	}
	return sess, nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*Session, error) {
	sess := &Session{UserID: userID, Permissions: []string{}}
	var active bool
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(account_provider_id, id), user_type, role_id, is_active
		 FROM users WHERE id = $1 AND is_deleted = false`, userID,
	).Scan(&sess.ProviderID, &sess.UserType, &sess.RoleID, &active)
	if database.IsNoRows(err) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if !active {
		return nil, apperr.ErrUnauthenticated
	}

	if sess.RoleID == nil {
		return sess, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT p.key FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 ORDER BY p.key`, *sess.RoleID,
	)
	if err != nil {
		return nil, fmt.Errorf("load session permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		sess.Permissions = append(sess.Permissions, key)
	}
	return sess, rows.Err()
}

// Invalidate drops cached sessions for the given users.
func (s *Service) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = sessionKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("session cache invalidation failed", "error", err)
	}
}

// InvalidateRole drops cached sessions of everyone holding roleID.
func (s *Service) InvalidateRole(ctx context.Context, roleID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteTracked(ctx, roleKey(roleID)); err != nil {
		slog.Warn("role session invalidation failed", "role_id", roleID, "error", err)
	}
}
