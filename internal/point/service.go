// Package point manages reward point configurations, earn requests and
// withdrawals of a user's approved balance.
package point

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
	"github.com/nikhilbhutani/staffdesk/internal/workflow"
)

type Service struct {
	db       database.DBTX
	notifier workflow.Notifier
	shaper   shape.Shaper
}

func NewService(db database.DBTX, notifier workflow.Notifier, shaper shape.Shaper) *Service {
	return &Service{db: db, notifier: notifier, shaper: shaper}
}

var Fields = []query.Field{
	query.Contains("name", "t.name"),
	query.Range("points", "t.points", query.KindInt),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From:    "points t",
	Columns: "t.id, t.provider_id, t.created_by, t.name, t.points, t.created_at, t.updated_at",
	Live:    "t.is_deleted = false",
}

func scanPoint(row pgx.Row) (models.Point, error) {
	var p models.Point
	err := row.Scan(&p.ID, &p.ProviderID, &p.CreatedBy, &p.Name, &p.Points, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Point], error) {
	res, err := query.List(ctx, s.db, table, sess.ViaCreator(), spec, scanPoint)
	if err != nil {
		return res, fmt.Errorf("list points: %w", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Point, error) {
	p, err := query.Get(ctx, s.db, table, sess.ViaCreator(), id, scanPoint)
	if database.IsNoRows(err) {
		return nil, apperr.ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get point: %w", err)
	}
	return &p, nil
}

type CreateRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	Points int    `json:"points" validate:"required,gt=0"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Point, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO points (provider_id, created_by, name, points)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		sess.ProviderID, sess.UserID, req.Name, req.Points,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create point: %w", err)
	}
	return s.Get(ctx, sess, id)
}

type UpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=200"`
	Points *int    `json:"points" validate:"omitempty,gt=0"`
}

func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Point, error) {
	u := query.NewUpdate("points")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.Points != nil {
		u.Set("points", *req.Points)
	}
	if u.Empty() {
		return s.Get(ctx, sess, id)
	}

	u.SetExpr("updated_at = now()").
		Where("t.id = %s", id).
		Scope(sess.ViaCreator()).
		Where("t.is_deleted = false")
	tag, err := s.db.Exec(ctx, u.SQL(), u.Args()...)
	if err != nil {
		return nil, fmt.Errorf("update point: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrPointNotFound
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, "points", sess.ViaCreator(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrPointNotFound
	}
	return nil
}
