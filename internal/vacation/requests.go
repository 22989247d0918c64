package vacation

import (
	"context"
	"fmt"
	"log/slog"

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

const requestsTable = "vacation_requests"

var RequestFields = []query.Field{
	query.Eq("vacation_id", "t.vacation_id", query.KindUUID),
	query.Eq("user_id", "t.user_id", query.KindUUID),
	query.Enum("status", "t.status", models.ParseRequestStatus),
	query.Range("start_date", "t.start_date", query.KindDate),
}

var requestTable = query.Table{
	From: `vacation_requests t
		JOIN vacations v ON v.id = t.vacation_id
		JOIN users u ON u.id = t.user_id`,
	Columns: `t.id, t.vacation_id, v.name, t.user_id, t.provider_id, t.created_by,
		t.start_date, t.end_date, t.real_vacation_days, t.status, t.note, t.created_at, t.updated_at, ` +
		workflow.SummaryColumns,
	Live: "t.is_deleted = false",
}

func scanRequest(row pgx.Row) (models.VacationRequest, error) {
	var r models.VacationRequest
	var u models.UserSummary
	dest := append([]any{&r.ID, &r.VacationID, &r.VacationName, &r.UserID, &r.ProviderID, &r.CreatedBy,
		&r.StartDate, &r.EndDate, &r.RealVacationDays, &r.Status, &r.Note, &r.CreatedAt, &r.UpdatedAt},
		workflow.ScanSummary(&u)...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	r.User = &u
	return r, nil
}

func requestUser(r *models.VacationRequest) *models.UserSummary { return r.User }

func (s *Service) ListRequests(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.VacationRequest], error) {
	res, err := query.List(ctx, s.db, requestTable, sess.Direct(), spec, scanRequest)
	if err != nil {
		return res, fmt.Errorf("list vacation requests: %w", err)
	}
	shape.Summaries(s.shaper, res.Items, requestUser)
	return res, nil
}

func (s *Service) GetRequest(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.VacationRequest, error) {
	r, err := query.Get(ctx, s.db, requestTable, sess.Direct(), id, scanRequest)
	if database.IsNoRows(err) {
		return nil, apperr.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vacation request: %w", err)
	}
	s.shaper.Summary(r.User)
	return &r, nil
}

type SubmitRequest struct {
	VacationID uuid.UUID   `json:"vacation_id" validate:"required"`
	UserID     *uuid.UUID  `json:"user_id"`
	StartDate  models.Date `json:"start_date"`
	EndDate    models.Date `json:"end_date"`
	Note       string      `json:"note" validate:"max=1000"`
}

// Submit files a pending request. Requests for other users need the
// caller to be a member of the same provider as the target user.
func (s *Service) Submit(ctx context.Context, sess *tenant.Session, req SubmitRequest) (*models.VacationRequest, error) {
	if req.StartDate.IsZero() {
		return nil, apperr.ErrInvalidInput.WithDetail("start_date")
	}
	if req.EndDate.IsZero() {
		return nil, apperr.ErrInvalidInput.WithDetail("end_date")
	}
	days, err := Days(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	userID := sess.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, userID); err != nil {
		return nil, err
	}

	v, err := s.Get(ctx, sess, req.VacationID)
	if err != nil {
		return nil, err
	}
	start, end := Window(v.DurationType, req.StartDate)
	used, err := usedDays(ctx, s.db, v.ID, userID, start, end)
	if err != nil {
		return nil, err
	}
	if err := CheckAllowance(used, days, v.MaxDays); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO vacation_requests
		   (vacation_id, user_id, provider_id, created_by, start_date, end_date, real_vacation_days, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		v.ID, userID, sess.ProviderID, sess.UserID, req.StartDate, req.EndDate, days, req.Note,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create vacation request: %w", err)
	}
	return s.GetRequest(ctx, sess, id)
}

// UpdateStatus approves or rejects a pending request. Approval locks the
// vacation row and re-checks the allowance so concurrent approvals for the
// same vacation serialize.
func (s *Service) UpdateStatus(ctx context.Context, sess *tenant.Session, id uuid.UUID, status models.RequestStatus) (*models.VacationRequest, error) {
	if err := workflow.ValidateDecision(status); err != nil {
		return nil, err
	}

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := workflow.LockPending(ctx, tx, requestsTable, sess.Direct(), id); err != nil {
			return err
		}
		if status == models.StatusApproved {
			if err := recheck(ctx, tx, id); err != nil {
				return err
			}
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
		s.notifier.Dispatch(ctx, sess.ProviderID, workflow.Event("vacation", status), r)
	}
	return r, nil
}

func recheck(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var (
		vacationID, userID uuid.UUID
		startDate          models.Date
		days, maxDays      int
		durationType       models.DurationType
	)
	err := tx.QueryRow(ctx,
		`SELECT v.id, r.user_id, r.start_date, r.real_vacation_days, v.duration_type, v.max_days
		 FROM vacation_requests r JOIN vacations v ON v.id = r.vacation_id
		 WHERE r.id = $1 FOR UPDATE OF v`,
		id,
	).Scan(&vacationID, &userID, &startDate, &days, &durationType, &maxDays)
	if err != nil {
		return fmt.Errorf("lock vacation: %w", err)
	}

	start, end := Window(durationType, startDate)
	used, err := usedDays(ctx, tx, vacationID, userID, start, end)
	if err != nil {
		return err
	}
	if err := CheckAllowance(used, days, maxDays); err != nil {
		slog.Info("vacation approval over allowance",
			"request_id", id, "used", used, "requested", days, "max", maxDays)
		return err
	}
	return nil
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
