package role

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/cache"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

const (
	treeKey = "permissions:tree"
	treeTTL = time.Hour
)

type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type SessionInvalidator interface {
	InvalidateRole(ctx context.Context, roleID uuid.UUID)
}

type Service struct {
	db       database.DBTX
	cache    Cache
	sessions SessionInvalidator
}

func NewService(db database.DBTX, c Cache, sessions SessionInvalidator) *Service {
	return &Service{db: db, cache: c, sessions: sessions}
}

var Fields = []query.Field{
	query.Prefix("name", "t.name"),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From: "roles t",
	Columns: `t.id, t.provider_id, t.name, t.description,
		(SELECT COUNT(*) FROM users u WHERE u.role_id = t.id AND u.is_deleted = false),
		t.created_by, t.created_at, t.updated_at`,
	OrderBy: "t.name",
}

func scanRole(row pgx.Row) (models.Role, error) {
	var r models.Role
	err := row.Scan(&r.ID, &r.ProviderID, &r.Name, &r.Description, &r.UsersCount, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Role], error) {
	res, err := query.List(ctx, s.db, table, sess.Direct(), spec, scanRole)
	if err != nil {
		return res, fmt.Errorf("list roles: %w", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Role, error) {
	r, err := query.Get(ctx, s.db, table, sess.Direct(), id, scanRole)
	if database.IsNoRows(err) {
		return nil, apperr.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &r, nil
}

type CreateRequest struct {
	Name          string      `json:"name" validate:"required,max=100"`
	Description   string      `json:"description" validate:"max=500"`
	PermissionIDs []uuid.UUID `json:"permission_ids"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Role, error) {
	var id uuid.UUID
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (provider_id, name, description, created_by)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			sess.ProviderID, req.Name, req.Description, sess.UserID,
		).Scan(&id)
		if err != nil {
			return err
		}
		return grant(ctx, tx, id, req.PermissionIDs)
	})
	if database.IsUniqueViolation(err) {
		return nil, apperr.ErrConflict.WithDetail("name").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return s.Get(ctx, sess, id)
}

type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Role, error) {
	u := query.NewUpdate("roles")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.Description != nil {
		u.Set("description", *req.Description)
	}
	if u.Empty() {
		return s.Get(ctx, sess, id)
	}

	u.SetExpr("updated_at = now()").Where("t.id = %s", id).Scope(sess.Direct())
	tag, err := s.db.Exec(ctx, u.SQL(), u.Args()...)
	if database.IsUniqueViolation(err) {
		return nil, apperr.ErrConflict.WithDetail("name").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrRoleNotFound
	}
	return s.Get(ctx, sess, id)
}

// Delete removes a role that no live user holds.
func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	return database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var assigned int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM users u
			 JOIN roles t ON t.id = u.role_id
			 WHERE t.id = $1 AND t.provider_id = $2 AND u.is_deleted = false`,
			id, sess.ProviderID,
		).Scan(&assigned)
		if err != nil {
			return fmt.Errorf("count role users: %w", err)
		}
		if assigned > 0 {
			return apperr.ErrRoleIsAssociatedToOtherUsers
		}

		// soft-deleted users may still reference the role
		if _, err := tx.Exec(ctx, "UPDATE users SET role_id = NULL WHERE role_id = $1 AND is_deleted = true", id); err != nil {
			return fmt.Errorf("detach deleted users: %w", err)
		}

		w := query.ByID(sess.Direct(), id)
		tag, err := tx.Exec(ctx, "DELETE FROM roles t WHERE "+w.SQL(), w.Args()...)
		if err != nil {
			return fmt.Errorf("delete role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrRoleNotFound
		}
		return nil
	})
}

// Permissions returns the full permission tree.
func (s *Service) Permissions(ctx context.Context) ([]*models.PermissionNode, error) {
	if s.cache != nil {
		var cached []*models.PermissionNode
		err := s.cache.Get(ctx, treeKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsMiss(err) {
			slog.Warn("permission tree cache read failed", "error", err)
		}
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, parent_id, key, name_en, name_ar, sort_order
		 FROM permissions ORDER BY sort_order, key`)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.ParentID, &p.Key, &p.NameEN, &p.NameAR, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tree := BuildTree(perms)
	if s.cache != nil {
		if err := s.cache.Set(ctx, treeKey, tree, treeTTL); err != nil {
			slog.Warn("permission tree cache write failed", "error", err)
		}
	}
	return tree, nil
}

// RolePermissions returns the permission tree with the role's grants enabled.
func (s *Service) RolePermissions(ctx context.Context, sess *tenant.Session, id uuid.UUID) ([]*models.PermissionNode, error) {
	if _, err := s.Get(ctx, sess, id); err != nil {
		return nil, err
	}

	tree, err := s.Permissions(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, "SELECT permission_id FROM role_permissions WHERE role_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	defer rows.Close()

	granted := map[uuid.UUID]bool{}
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("scan role permission: %w", err)
		}
		granted[pid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return markEnabled(tree, granted), nil
}

type ReplacePermissionsRequest struct {
	PermissionIDs []uuid.UUID `json:"permission_ids" validate:"required"`
}

// ReplacePermissions swaps the role's grant set atomically.
func (s *Service) ReplacePermissions(ctx context.Context, sess *tenant.Session, id uuid.UUID, ids []uuid.UUID) ([]*models.PermissionNode, error) {
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var ok bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1 AND provider_id = $2)",
			id, sess.ProviderID,
		).Scan(&ok)
		if err != nil {
			return fmt.Errorf("check role: %w", err)
		}
		if !ok {
			return apperr.ErrRoleNotFound
		}

		if _, err := tx.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", id); err != nil {
			return fmt.Errorf("clear role permissions: %w", err)
		}
		return grant(ctx, tx, id, ids)
	})
	if err != nil {
		return nil, err
	}

	if s.sessions != nil {
		s.sessions.InvalidateRole(ctx, id)
	}
	return s.RolePermissions(ctx, sess, id)
}

func grant(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id)
		 SELECT $1, id FROM permissions WHERE id = ANY($2)
		 ON CONFLICT DO NOTHING`,
		roleID, ids,
	)
	if err != nil {
		return fmt.Errorf("grant permissions: %w", err)
	}
	return nil
}
