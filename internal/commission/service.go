package commission

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
	query.Enum("commission_type", "t.commission_type", models.ParseCommissionType),
	query.Range("value", "t.value", query.KindFloat),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From:    "commissions t",
	Columns: "t.id, t.provider_id, t.created_by, t.name, t.commission_type, t.value, t.created_at, t.updated_at",
	Live:    "t.is_deleted = false",
}

func scanCommission(row pgx.Row) (models.Commission, error) {
	var c models.Commission
	err := row.Scan(&c.ID, &c.ProviderID, &c.CreatedBy, &c.Name, &c.CommissionType, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Commission], error) {
	res, err := query.List(ctx, s.db, table, sess.ViaCreator(), spec, scanCommission)
	if err != nil {
		return res, fmt.Errorf("list commissions: %w", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Commission, error) {
	c, err := query.Get(ctx, s.db, table, sess.ViaCreator(), id, scanCommission)
	if database.IsNoRows(err) {
		return nil, apperr.ErrCommissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get commission: %w", err)
	}
	return &c, nil
}

type CreateRequest struct {
	Name           string                `json:"name" validate:"required,max=200"`
	CommissionType models.CommissionType `json:"commission_type" validate:"required"`
	Value          float64               `json:"value" validate:"gte=0"`
}

func validateValue(t models.CommissionType, v float64) error {
	if !t.Valid() {
		return apperr.ErrInvalidInput.WithDetail("commission_type")
	}
	if t == models.CommissionPercentage && v > 100 {
		return apperr.ErrInvalidInput.WithDetail("value")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Commission, error) {
	if err := validateValue(req.CommissionType, req.Value); err != nil {
		return nil, err
	}
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO commissions (provider_id, created_by, name, commission_type, value)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sess.ProviderID, sess.UserID, req.Name, int16(req.CommissionType), req.Value,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create commission: %w", err)
	}
	return s.Get(ctx, sess, id)
}

type UpdateRequest struct {
	Name           *string                `json:"name" validate:"omitempty,max=200"`
	CommissionType *models.CommissionType `json:"commission_type"`
	Value          *float64               `json:"value" validate:"omitempty,gte=0"`
}

func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Commission, error) {
	if req.CommissionType != nil || req.Value != nil {
		current, err := s.Get(ctx, sess, id)
		if err != nil {
			return nil, err
		}
		t, v := current.CommissionType, current.Value
		if req.CommissionType != nil {
			t = *req.CommissionType
		}
		if req.Value != nil {
			v = *req.Value
		}
		if err := validateValue(t, v); err != nil {
			return nil, err
		}
	}

	u := query.NewUpdate("commissions")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.CommissionType != nil {
		u.Set("commission_type", int16(*req.CommissionType))
	}
	if req.Value != nil {
		u.Set("value", *req.Value)
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
		return nil, fmt.Errorf("update commission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrCommissionNotFound
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, "commissions", sess.ViaCreator(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrCommissionNotFound
	}
	return nil
}
