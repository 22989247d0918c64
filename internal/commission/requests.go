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

const requestsTable = "commission_requests"

var RequestFields = []query.Field{
	query.Eq("commission_id", "t.commission_id", query.KindUUID),
	query.Eq("user_id", "t.user_id", query.KindUUID),
	query.Enum("status", "t.status", models.ParseRequestStatus),
	query.Enum("request_type", "t.request_type", models.ParseRequestType),
	query.Range("amount", "t.amount", query.KindFloat),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var requestTable = query.Table{
	From: `commission_requests t
		JOIN commissions c ON c.id = t.commission_id
		JOIN users u ON u.id = t.user_id`,
	Columns: `t.id, t.commission_id, c.name, c.commission_type, t.user_id, t.provider_id, t.created_by,
		t.request_type, t.sale_amount, t.amount, t.status, t.source_request_id, t.created_at, t.updated_at, ` +
		workflow.SummaryColumns,
	Live: "t.is_deleted = false",
}

func scanRequest(row pgx.Row) (models.CommissionRequest, error) {
	var r models.CommissionRequest
	var u models.UserSummary
	dest := append([]any{&r.ID, &r.CommissionID, &r.CommissionName, &r.CommissionType, &r.UserID, &r.ProviderID,
		&r.CreatedBy, &r.RequestType, &r.SaleAmount, &r.Amount, &r.Status, &r.SourceRequestID, &r.CreatedAt, &r.UpdatedAt},
		workflow.ScanSummary(&u)...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	r.User = &u
	return r, nil
}

func requestUser(r *models.CommissionRequest) *models.UserSummary { return r.User }

func (s *Service) ListRequests(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.CommissionRequest], error) {
	res, err := query.List(ctx, s.db, requestTable, sess.Direct(), spec, scanRequest)
	if err != nil {
		return res, fmt.Errorf("list commission requests: %w", err)
	}
	shape.Summaries(s.shaper, res.Items, requestUser)
	return res, nil
}

func (s *Service) GetRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.CommissionRequest, error) {
	r, err := query.Get(ctx, s.db, requestTable, sess.Direct(), id, scanRequest)
	if database.IsNoRows(err) {
		return nil, apperr.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get commission request: %w", err)
	}
	s.shaper.Summary(r.User)
	return &r, nil
}

type SubmitRequest struct {
	CommissionID uuid.UUID  `json:"commission_id" validate:"required"`
	UserID       *uuid.UUID `json:"user_id"`
	SaleAmount   float64    `json:"sale_amount" validate:"gte=0"`
}

// Submit files a pending earn request whose amount follows the commission's type.
func (s *Service) Submit(ctx context.Context, sess *tenant.Session, req SubmitRequest) (*models.CommissionRequest, error) {
	userID := sess.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, userID); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, sess, req.CommissionID)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO commission_requests
		   (commission_id, user_id, provider_id, created_by, request_type, sale_amount, amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		c.ID, userID, sess.ProviderID, sess.UserID, int16(models.RequestEarn), req.SaleAmount, c.Amount(req.SaleAmount),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create commission request: %w", err)
	}
	return s.GetRequest(ctx, sess, id)
}

func (s *Service) UpdateStatus(ctx context.Context, sess *tenant.Session, id uuid.UUID, status models.RequestStatus) (*models.CommissionRequest, error) {
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
	return s.notify(ctx, sess, id, status)
}

// Withdraw pays out an approved earn request: a withdraw entry referencing
// the source is recorded and the source is flipped to withdrawn.
func (s *Service) Withdraw(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.CommissionRequest, error) {
	var withdrawID uuid.UUID
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		status, err := workflow.Lock(ctx, tx, requestsTable, sess.Direct(), id)
		if err != nil {
			return err
		}
		if status != models.StatusApproved {
			return apperr.ErrRequestNotApproved
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO commission_requests
			   (commission_id, user_id, provider_id, created_by, request_type, sale_amount, amount, status, source_request_id)
			 SELECT commission_id, user_id, provider_id, $2, $3, sale_amount, amount, $4, id
			 FROM commission_requests WHERE id = $1 AND request_type = $5
			 RETURNING id`,
			id, sess.UserID, int16(models.RequestWithdraw), int16(models.StatusApproved), int16(models.RequestEarn),
		).Scan(&withdrawID)
		if database.IsNoRows(err) {
			return apperr.ErrRequestNotApproved
		}
		if err != nil {
			return fmt.Errorf("record commission withdrawal: %w", err)
		}
		return workflow.SetStatus(ctx, tx, requestsTable, id, models.StatusWithdrawn)
	})
	if err != nil {
		return nil, err
	}
	return s.notify(ctx, sess, withdrawID, models.StatusWithdrawn)
}

func (s *Service) notify(ctx context.Context, sess *tenant.Session, id uuid.UUID, status models.RequestStatus) (*models.CommissionRequest, error) {
	r, err := s.GetRequest(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, sess.ProviderID, workflow.Event("commission", status), r)
	}
	return r, nil
}

// DeleteRequest removes a pending request. Decided requests and withdraw
// entries are part of the payout ledger and cannot be deleted.
func (s *Service) DeleteRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	return workflow.DeletePending(ctx, s.db, requestsTable, sess.Direct(), id)
}
