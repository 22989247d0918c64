// Package punishment manages deduction configurations and the requests
// that apply them to employees.
package punishment

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

const requestsTable = "punishment_requests"

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
	query.Range("deduction_amount", "t.deduction_amount", query.KindFloat),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From:    "punishments t",
	Columns: "t.id, t.provider_id, t.created_by, t.name, t.deduction_amount, t.created_at, t.updated_at",
	Live:    "t.is_deleted = false",
}

func scanPunishment(row pgx.Row) (models.Punishment, error) {
	var p models.Punishment
	err := row.Scan(&p.ID, &p.ProviderID, &p.CreatedBy, &p.Name, &p.DeductionAmount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Punishment], error) {
	res, err := query.List(ctx, s.db, table, sess.ViaCreator(), spec, scanPunishment)
	if err != nil {
		return res, fmt.Errorf("list punishments: %w", err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Punishment, error) {
	p, err := query.Get(ctx, s.db, table, sess.ViaCreator(), id, scanPunishment)
	if database.IsNoRows(err) {
		return nil, apperr.ErrPunishmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get punishment: %w", err)
	}
	return &p, nil
}

type CreateRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	DeductionAmount float64 `json:"deduction_amount" validate:"gte=0"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Punishment, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO punishments (provider_id, created_by, name, deduction_amount)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		sess.ProviderID, sess.UserID, req.Name, req.DeductionAmount,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create punishment: %w", err)
	}
	return s.Get(ctx, sess, id)
}

type UpdateRequest struct {
	Name            *string  `json:"name" validate:"omitempty,max=200"`
	DeductionAmount *float64 `json:"deduction_amount" validate:"omitempty,gte=0"`
}

func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Punishment, error) {
	u := query.NewUpdate("punishments")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.DeductionAmount != nil {
		u.Set("deduction_amount", *req.DeductionAmount)
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
		return nil, fmt.Errorf("update punishment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrPunishmentNotFound
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, "punishments", sess.ViaCreator(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrPunishmentNotFound
	}
	return nil
}

var RequestFields = []query.Field{
	query.Eq("punishment_id", "t.punishment_id", query.KindUUID),
	query.Eq("user_id", "t.user_id", query.KindUUID),
	query.Enum("status", "t.status", models.ParseRequestStatus),
	query.Contains("reason", "t.reason"),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var requestTable = query.Table{
	From: `punishment_requests t
		JOIN punishments p ON p.id = t.punishment_id
		JOIN users u ON u.id = t.user_id`,
	Columns: `t.id, t.punishment_id, p.name, p.deduction_amount, t.user_id, t.provider_id, t.created_by,
		t.reason, t.status, t.created_at, t.updated_at, ` + workflow.SummaryColumns,
	Live: "t.is_deleted = false",
}

func scanRequest(row pgx.Row) (models.PunishmentRequest, error) {
	var r models.PunishmentRequest
	var u models.UserSummary
	dest := append([]any{&r.ID, &r.PunishmentID, &r.PunishmentName, &r.DeductionAmount, &r.UserID, &r.ProviderID,
		&r.CreatedBy, &r.Reason, &r.Status, &r.CreatedAt, &r.UpdatedAt},
		workflow.ScanSummary(&u)...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	r.User = &u
	return r, nil
}

func (s *Service) ListRequests(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.PunishmentRequest], error) {
	res, err := query.List(ctx, s.db, requestTable, sess.Direct(), spec, scanRequest)
	if err != nil {
		return res, fmt.Errorf("list punishment requests: %w", err)
	}
	shape.Summaries(s.shaper, res.Items, func(r *models.PunishmentRequest) *models.UserSummary { return r.User })
	return res, nil
}

func (s *Service) GetRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.PunishmentRequest, error) {
	r, err := query.Get(ctx, s.db, requestTable, sess.Direct(), id, scanRequest)
	if database.IsNoRows(err) {
		return nil, apperr.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get punishment request: %w", err)
	}
	s.shaper.Summary(r.User)
	return &r, nil
}

type SubmitRequest struct {
	PunishmentID uuid.UUID `json:"punishment_id" validate:"required"`
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	Reason       string    `json:"reason" validate:"max=1000"`
}

func (s *Service) Submit(ctx context.Context, sess *tenant.Session, req SubmitRequest) (*models.PunishmentRequest, error) {
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, req.UserID); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, sess, req.PunishmentID)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO punishment_requests (punishment_id, user_id, provider_id, created_by, reason)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.ID, req.UserID, sess.ProviderID, sess.UserID, req.Reason,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create punishment request: %w", err)
	}
	return s.GetRequest(ctx, sess, id)
}

func (s *Service) UpdateStatus(ctx context.Context, sess *tenant.Session, id uuid.UUID, status models.RequestStatus) (*models.PunishmentRequest, error) {
	if err := workflow.ValidateDecision(status); err != nil {
		return nil, err
	}
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := workflow.LockPending(ctx, tx, requestsTable, sess.Direct(), id); err != nil {
			return err
		}
		return workflow.SetStatus(ctx, tx, requestsTable, id, status)
	})
	if err != nil {
		return nil, err
	}

	r, err := s.GetRequest(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, sess.ProviderID, workflow.Event("punishment", status), r)
	}
	return r, nil
}

func (s *Service) DeleteRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, requestsTable, sess.Direct(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrRequestNotFound
	}
	return nil
}
