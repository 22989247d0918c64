// Package salary computes monthly payslips from base pay, approved
// commissions and approved punishments, and exports them as spreadsheets.
package salary

import (
	"context"
	"fmt"
	"math"
	"time"

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
	query.Range("month", "t.month", query.KindDate),
	query.Range("net_amount", "t.net_amount", query.KindFloat),
}

var table = query.Table{
	From: "salaries t JOIN users u ON u.id = t.user_id",
	Columns: `t.id, t.provider_id, t.created_by, t.user_id, t.month, t.base_amount, t.commissions_amount,
		t.deductions_amount, t.net_amount, t.note, t.created_at, t.updated_at, ` + workflow.SummaryColumns,
	OrderBy: "t.month DESC, u.name",
}

func scanSalary(row pgx.Row) (models.Salary, error) {
	var s models.Salary
	var u models.UserSummary
	dest := append([]any{&s.ID, &s.ProviderID, &s.CreatedBy, &s.UserID, &s.Month, &s.BaseAmount, &s.CommissionsAmount,
		&s.DeductionsAmount, &s.NetAmount, &s.Note, &s.CreatedAt, &s.UpdatedAt},
		workflow.ScanSummary(&u)...)
	if err := row.Scan(dest...); err != nil {
		return s, err
	}
	s.User = &u
	return s, nil
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Salary], error) {
	res, err := query.List(ctx, s.db, table, sess.Direct(), spec, scanSalary)
	if err != nil {
		return res, fmt.Errorf("list salaries: %w", err)
	}
	shape.Summaries(s.shaper, res.Items, func(s *models.Salary) *models.UserSummary { return s.User })
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Salary, error) {
	sal, err := query.Get(ctx, s.db, table, sess.Direct(), id, scanSalary)
	if database.IsNoRows(err) {
		return nil, apperr.ErrSalaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get salary: %w", err)
	}
	s.shaper.Summary(sal.User)
	return &sal, nil
}

type CreateRequest struct {
	UserID     uuid.UUID   `json:"user_id" validate:"required"`
	Month      models.Date `json:"month"`
	BaseAmount float64     `json:"base_amount" validate:"gte=0"`
	Note       string      `json:"note" validate:"max=1000"`
}

// Net is base pay plus commissions less deductions, rounded to cents.
func Net(base, commissions, deductions float64) float64 {
	return math.Round((base+commissions-deductions)*100) / 100
}

// Create records the payslip for the month containing req.Month. Approved
// earn commissions and approved punishments created in that month are
// summed in the same transaction as the insert.
func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Salary, error) {
	if req.Month.IsZero() {
		return nil, apperr.ErrInvalidInput.WithDetail("month")
	}
	if err := workflow.MemberOf(ctx, s.db, sess.ProviderID, req.UserID); err != nil {
		return nil, err
	}

	start := models.NewDate(req.Month.Year(), req.Month.Month(), 1)
	end := models.DateOf(start.AddDate(0, 1, 0))

	var id uuid.UUID
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var commissions, deductions float64
		err := tx.QueryRow(ctx,
			`SELECT
			   (SELECT COALESCE(SUM(cr.amount), 0) FROM commission_requests cr
			    WHERE cr.user_id = $1 AND cr.provider_id = $2 AND cr.request_type = $3 AND cr.status = $4
			      AND cr.is_deleted = false AND cr.created_at >= $5 AND cr.created_at < $6),
			   (SELECT COALESCE(SUM(p.deduction_amount), 0) FROM punishment_requests pr
			    JOIN punishments p ON p.id = pr.punishment_id
			    WHERE pr.user_id = $1 AND pr.provider_id = $2 AND pr.status = $4
			      AND pr.is_deleted = false AND pr.created_at >= $5 AND pr.created_at < $6)`,
			req.UserID, sess.ProviderID, int16(models.RequestEarn), int16(models.StatusApproved), start, end,
		).Scan(&commissions, &deductions)
		if err != nil {
			return fmt.Errorf("sum salary adjustments: %w", err)
		}

		return tx.QueryRow(ctx,
			`INSERT INTO salaries (provider_id, created_by, user_id, month, base_amount,
			                       commissions_amount, deductions_amount, net_amount, note)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			sess.ProviderID, sess.UserID, req.UserID, start, req.BaseAmount,
			commissions, deductions, Net(req.BaseAmount, commissions, deductions), req.Note,
		).Scan(&id)
	})
	if database.IsUniqueViolation(err) {
		return nil, apperr.ErrConflict.WithDetail("month").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("create salary: %w", err)
	}
	return s.Get(ctx, sess, id)
}

// Delete removes the payslip row.
func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	w := query.ByID(sess.Direct(), id)
	tag, err := s.db.Exec(ctx, "DELETE FROM salaries t WHERE "+w.SQL(), w.Args()...)
	if err != nil {
		return fmt.Errorf("delete salary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrSalaryNotFound
	}
	return nil
}

// All pages through every salary matching spec.
func (s *Service) All(ctx context.Context, sess *tenant.Session, spec query.Spec) ([]models.Salary, error) {
	var out []models.Salary
	spec.Page = query.Page{Number: 1, Limit: query.MaxLimit}
	for {
		res, err := query.List(ctx, s.db, table, sess.Direct(), spec, scanSalary)
		if err != nil {
			return nil, fmt.Errorf("export salaries: %w", err)
		}
		out = append(out, res.Items...)
		if spec.Page.Number >= res.Pagination.TotalPages {
			return out, nil
		}
		spec.Page.Number++
	}
}

// ExportName is the download filename for an export generated at t.
func ExportName(t time.Time) string {
	return "salaries-" + t.Format("2006-01-02") + ".xlsx"
}
