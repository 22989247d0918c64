// Package target tracks sales targets assigned to employees.
package target

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
	db     database.DBTX
	shaper shape.Shaper
}

func NewService(db database.DBTX, shaper shape.Shaper) *Service {
	return &Service{db: db, shaper: shaper}
}

var Fields = []query.Field{
	query.Eq("user_id", "t.user_id", query.KindUUID),
	query.Eq("product_id", "t.product_id", query.KindUUID),
	query.Enum("status", "t.status", models.ParseTargetStatus),
	query.Contains("title", "t.title"),
	query.Range("start_date", "t.start_date", query.KindDate),
}

var table = query.Table{
	From: "targets t JOIN users u ON u.id = t.user_id",
	Columns: `t.id, t.provider_id, t.created_by, t.user_id, t.product_id, t.title, t.target_value,
		t.achieved_value, t.start_date, t.end_date, t.status, t.created_at, t.updated_at, ` + workflow.SummaryColumns,
	Live: "t.is_deleted = false",
}

func scanTarget(row pgx.Row) (models.Target, error) {
	var t models.Target
	var u models.UserSummary
	dest := append([]any{&t.ID, &t.ProviderID, &t.CreatedBy, &t.UserID, &t.ProductID, &t.Title, &t.TargetValue,
		&t.AchievedValue, &t.StartDate, &t.EndDate, &t.Status, &t.CreatedAt, &t.UpdatedAt},
		workflow.ScanSummary(&u)...)
	if err := row.Scan(dest...); err != nil {
		return t, err
	}
	t.User = &u
	return t, nil
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Target], error) {
	res, err := query.List(ctx, s.db, table, sess.Direct(), spec, scanTarget)
	if err != nil {
		return res, fmt.Errorf("list targets: %w", err)
	}
	shape.Summaries(s.shaper, res.Items, func(t *models.Target) *models.UserSummary { return t.User })
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Target, error) {
	t, err := query.Get(ctx, s.db, table, sess.Direct(), id, scanTarget)
	if database.IsNoRows(err) {
		return nil, apperr.ErrTargetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	s.shaper.Summary(t.User)
	return &t, nil
}

// StatusFor derives the status a target should carry. Reaching the target
// value wins over any requested status.
func StatusFor(requested models.TargetStatus, targetValue, achieved float64) models.TargetStatus {
	if achieved >= targetValue {
		return models.TargetAchieved
	}
	if requested == models.TargetAchieved || !requested.Valid() {
		return models.TargetInProgress
	}
	return requested
}

type CreateRequest struct {
	UserID        uuid.UUID   `json:"user_id" validate:"required"`
	ProductID     *uuid.UUID  `json:"product_id"`
	Title         string      `json:"title" validate:"required,max=200"`
	TargetValue   float64     `json:"target_value" validate:"gt=0"`
	AchievedValue float64     `json:"achieved_value" validate:"gte=0"`
	StartDate     models.Date `json:"start_date"`
	EndDate       models.Date `json:"end_date"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Target, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, apperr.ErrInvalidInput.WithDetail("start_date, end_date")
	}
	if req.EndDate.Before(req.StartDate.Time) {
		return nil, apperr.ErrInvalidDateRange
	}
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, req.UserID); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, sess, req.ProductID); err != nil {
		return nil, err
	}

	status := StatusFor(models.TargetInProgress, req.TargetValue, req.AchievedValue)
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO targets (provider_id, created_by, user_id, product_id, title, target_value,
		                      achieved_value, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		sess.ProviderID, sess.UserID, req.UserID, req.ProductID, req.Title, req.TargetValue,
		req.AchievedValue, req.StartDate, req.EndDate, int16(status),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) checkProduct(ctx context.Context, sess *tenant.Session, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var ok bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND provider_id = $2 AND is_deleted = false)",
		*id, sess.ProviderID,
	).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return apperr.ErrProductNotFound
	}
	return nil
}

type UpdateRequest struct {
	Title         *string              `json:"title" validate:"omitempty,max=200"`
	TargetValue   *float64             `json:"target_value" validate:"omitempty,gt=0"`
	AchievedValue *float64             `json:"achieved_value" validate:"omitempty,gte=0"`
	EndDate       *models.Date         `json:"end_date"`
	Status        *models.TargetStatus `json:"status"`
}

// Update applies the given fields and recomputes the status from the
// resulting target and achieved values.
func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Target, error) {
	current, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	next := *current
	u := query.NewUpdate("targets")
	if req.Title != nil {
		u.Set("title", *req.Title)
	}
	if req.TargetValue != nil {
		next.TargetValue = *req.TargetValue
		u.Set("target_value", next.TargetValue)
	}
	if req.AchievedValue != nil {
		next.AchievedValue = *req.AchievedValue
		u.Set("achieved_value", next.AchievedValue)
	}
	if req.EndDate != nil {
		if req.EndDate.Before(current.StartDate.Time) {
			return nil, apperr.ErrInvalidDateRange
		}
		u.Set("end_date", *req.EndDate)
	}
	requested := current.Status
	if req.Status != nil {
		requested = *req.Status
	}
	if status := StatusFor(requested, next.TargetValue, next.AchievedValue); status != current.Status {
		u.Set("status", int16(status))
	}
	if u.Empty() {
		return current, nil
	}

	u.SetExpr("updated_at = now()").
		Where("t.id = %s", id).
		Scope(sess.Direct()).
		Where("t.is_deleted = false")
	tag, err := s.db.Exec(ctx, u.SQL(), u.Args()...)
	if err != nil {
		return nil, fmt.Errorf("update target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrTargetNotFound
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, "targets", sess.Direct(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrTargetNotFound
	}
	return nil
}
