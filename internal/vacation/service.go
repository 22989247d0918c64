// Package vacation manages vacation configurations, the requests filed
// against them and the per-window allowance that bounds approved days.
package vacation

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
	query.Enum("duration_type", "t.duration_type", models.ParseDurationType),
	query.Range("max_days", "t.max_days", query.KindInt),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From:    "vacations t",
	Columns: "t.id, t.provider_id, t.created_by, t.name, t.duration_type, t.max_days, t.created_at, t.updated_at",
	Live:    "t.is_deleted = false",
}

func scanVacation(row pgx.Row) (models.Vacation, error) {
	var v models.Vacation
	err := row.Scan(&v.ID, &v.ProviderID, &v.CreatedBy, &v.Name, &v.DurationType, &v.MaxDays, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Vacation], error) {
	res, err := query.List(ctx, s.db, table, sess.ViaCreator(), spec, scanVacation)
	if err != nil {
		return res, fmt.Errorf("list vacations: %w", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Vacation, error) {
	v, err := query.Get(ctx, s.db, table, sess.ViaCreator(), id, scanVacation)
	if database.IsNoRows(err) {
		return nil, apperr.ErrVacationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vacation: %w", err)
	}
	return &v, nil
}

type CreateRequest struct {
	Name         string              `json:"name" validate:"required,max=200"`
	DurationType models.DurationType `json:"duration_type" validate:"required"`
	MaxDays      int                 `json:"max_days" validate:"gte=0,lte=366"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Vacation, error) {
	if !req.DurationType.Valid() {
		return nil, apperr.ErrInvalidInput.WithDetail("duration_type")
	}
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO vacations (provider_id, created_by, name, duration_type, max_days)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sess.ProviderID, sess.UserID, req.Name, int16(req.DurationType), req.MaxDays,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create vacation: %w", err)
	}
	return s.Get(ctx, sess, id)
}

type UpdateRequest struct {
	Name         *string              `json:"name" validate:"omitempty,max=200"`
	DurationType *models.DurationType `json:"duration_type"`
	MaxDays      *int                 `json:"max_days" validate:"omitempty,gte=0,lte=366"`
}

func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Vacation, error) {
	u := query.NewUpdate("vacations")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.DurationType != nil {
		if !req.DurationType.Valid() {
			return nil, apperr.ErrInvalidInput.WithDetail("duration_type")
		}
		u.Set("duration_type", int16(*req.DurationType))
	}
	if req.MaxDays != nil {
		u.Set("max_days", *req.MaxDays)
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
		return nil, fmt.Errorf("update vacation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrVacationNotFound
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, "vacations", sess.ViaCreator(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrVacationNotFound
	}
	return nil
}

// Balance reports userID's usage of the vacation in the window containing on.
func (s *Service) Balance(ctx context.Context, sess *tenant.Session, id, userID uuid.UUID, on models.Date) (*models.VacationBalance, error) {
	v, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, userID); err != nil {
		return nil, err
	}

	start, end := Window(v.DurationType, on)
	used, err := usedDays(ctx, s.db, v.ID, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &models.VacationBalance{
		VacationID:    v.ID,
		UserID:        userID,
		DurationType:  v.DurationType,
		WindowStart:   start,
		WindowEnd:     end,
		UsedDays:      used,
		MaxDays:       v.MaxDays,
		RemainingDays: max(0, v.MaxDays-used),
	}, nil
}

// usedDays sums approved days of requests starting inside [start, end).
func usedDays(ctx context.Context, db database.DBTX, vacationID, userID uuid.UUID, start, end models.Date) (int, error) {
	var used int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(real_vacation_days), 0) FROM vacation_requests
		 WHERE vacation_id = $1 AND user_id = $2 AND status = $3 AND is_deleted = false
		   AND start_date >= $4 AND start_date < $5`,
		vacationID, userID, int16(models.StatusApproved), start, end,
	).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("sum used vacation days: %w", err)
	}
	return used, nil
}
