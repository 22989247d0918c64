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

const requestsTable = "point_requests"

var RequestFields = []query.Field{
	query.Eq("point_id", "t.point_id", query.KindUUID),
	query.Eq("user_id", "t.user_id", query.KindUUID),
	query.Enum("status", "t.status", models.ParseRequestStatus),
	query.Enum("request_type", "t.request_type", models.ParseRequestType),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

// Withdraw entries carry no point configuration, hence the outer join.
var requestTable = query.Table{
	From: `point_requests t
		LEFT JOIN points p ON p.id = t.point_id
		JOIN users u ON u.id = t.user_id`,
	Columns: `t.id, t.point_id, p.name, t.user_id, t.provider_id, t.created_by, t.request_type, t.points,
		t.status, t.withdrawal_id, t.created_at, t.updated_at, ` + workflow.SummaryColumns,
	Live: "t.is_deleted = false",
}

func scanRequest(row pgx.Row) (models.PointRequest, error) {
	var r models.PointRequest
	var u models.UserSummary
	dest := append([]any{&r.ID, &r.PointID, &r.PointName, &r.UserID, &r.ProviderID, &r.CreatedBy,
		&r.RequestType, &r.Points, &r.Status, &r.WithdrawalID, &r.CreatedAt, &r.UpdatedAt},
		workflow.ScanSummary(&u)...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	r.User = &u
	return r, nil
}

func (s *Service) ListRequests(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.PointRequest], error) {
	res, err := query.List(ctx, s.db, requestTable, sess.Direct(), spec, scanRequest)
	if err != nil {
		return res, fmt.Errorf("list point requests: %w", err)
	}
	shape.Summaries(s.shaper, res.Items, func(r *models.PointRequest) *models.UserSummary { return r.User })
	return res, nil
}

func (s *Service) GetRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.PointRequest, error) {
	r, err := query.Get(ctx, s.db, requestTable, sess.Direct(), id, scanRequest)
	if database.IsNoRows(err) {
		return nil, apperr.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get point request: %w", err)
	}
	s.shaper.Summary(r.User)
	return &r, nil
}

type EarnRequest struct {
	PointID uuid.UUID  `json:"point_id" validate:"required"`
	UserID  *uuid.UUID `json:"user_id"`
}

// Earn files a pending earn request worth the configuration's points.
func (s *Service) Earn(ctx context.Context, sess *tenant.Session, req EarnRequest) (*models.PointRequest, error) {
	userID := sess.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, userID); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, sess, req.PointID)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO point_requests (point_id, user_id, provider_id, created_by, request_type, points)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.ID, userID, sess.ProviderID, sess.UserID, int16(models.RequestEarn), p.Points,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create point request: %w", err)
	}
	return s.GetRequest(ctx, sess, id)
}

func (s *Service) UpdateStatus(ctx context.Context, sess *tenant.Session, id uuid.UUID, status models.RequestStatus) (*models.PointRequest, error) {
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

type WithdrawRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// Withdraw converts every approved earn request of the user into a single
// withdraw entry. The sources are row-locked and flipped to withdrawn.
func (s *Service) Withdraw(ctx context.Context, sess *tenant.Session, userID uuid.UUID) (*models.PointRequest, error) {
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, userID); err != nil {
		return nil, err
	}

	var withdrawID uuid.UUID
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT id, points FROM point_requests
			 WHERE user_id = $1 AND provider_id = $2 AND request_type = $3 AND status = $4 AND is_deleted = false
			 FOR UPDATE`,
			userID, sess.ProviderID, int16(models.RequestEarn), int16(models.StatusApproved),
		)
		if err != nil {
			return fmt.Errorf("lock earned points: %w", err)
		}
		ids, total, err := collect(rows)
		if err != nil {
			return err
		}
		if total == 0 {
			return apperr.ErrNoPointsToWithdraw
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO point_requests (user_id, provider_id, created_by, request_type, points, status)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			userID, sess.ProviderID, sess.UserID, int16(models.RequestWithdraw), total, int16(models.StatusApproved),
		).Scan(&withdrawID)
		if err != nil {
			return fmt.Errorf("record point withdrawal: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE point_requests SET status = $1, withdrawal_id = $2, updated_at = now()
			 WHERE id = ANY($3)`,
			int16(models.StatusWithdrawn), withdrawID, ids,
		)
		if err != nil {
			return fmt.Errorf("flip withdrawn points: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.notify(ctx, sess, withdrawID, models.StatusWithdrawn)
}

func collect(rows pgx.Rows) ([]uuid.UUID, int, error) {
	defer rows.Close()
	var (
		ids   []uuid.UUID
		total int
	)
	for rows.Next() {
		var id uuid.UUID
		var points int
		if err := rows.Scan(&id, &points); err != nil {
			return nil, 0, fmt.Errorf("scan earned points: %w", err)
		}
		ids = append(ids, id)
		total += points
	}
	return ids, total, rows.Err()
}

// Balance totals the user's points by state.
func (s *Service) Balance(ctx context.Context, sess *tenant.Session, userID uuid.UUID) (*models.PointBalance, error) {
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, userID); err != nil {
		return nil, err
	}

	b := models.PointBalance{UserID: userID}
	err := s.db.QueryRow(ctx,
		`SELECT
		   COALESCE(SUM(points) FILTER (WHERE request_type = $3 AND status = $4), 0),
		   COALESCE(SUM(points) FILTER (WHERE request_type = $3 AND status = $5), 0),
		   COALESCE(SUM(points) FILTER (WHERE request_type = $6), 0)
		 FROM point_requests
		 WHERE user_id = $1 AND provider_id = $2 AND is_deleted = false`,
		userID, sess.ProviderID, int16(models.RequestEarn), int16(models.StatusApproved),
		int16(models.StatusPending), int16(models.RequestWithdraw),
	).Scan(&b.Approved, &b.Pending, &b.Withdrawn)
	if err != nil {
		return nil, fmt.Errorf("point balance: %w", err)
	}
	return &b, nil
}

func (s *Service) notify(ctx context.Context, sess *tenant.Session, id uuid.UUID, status models.RequestStatus) (*models.PointRequest, error) {
	r, err := s.GetRequest(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, sess.ProviderID, workflow.Event("point", status), r)
	}
	return r, nil
}

// DeleteRequest removes a pending request. Decided requests and withdraw
// entries are part of the payout ledger and cannot be deleted.
func (s *Service) DeleteRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	return workflow.DeletePending(ctx, s.db, requestsTable, sess.Direct(), id)
}
