// Package workflow holds the status transitions shared by request-style
// resources (vacation, commission, punishment and point requests).
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
)

// Notifier publishes provider events to subscribed webhooks.
type Notifier interface {
	Dispatch(ctx context.Context, providerID uuid.UUID, event string, payload any)
}

type StatusRequest struct {
	Status models.RequestStatus `json:"status" validate:"required"`
}

// Lock reads and row-locks a live request inside scope, returning its status.
func Lock(ctx context.Context, tx pgx.Tx, table string, scope query.Scope, id uuid.UUID) (models.RequestStatus, error) {
	w := query.ByID(scope, id)
	w.Add("t.is_deleted = false")

	var status models.RequestStatus
	err := tx.QueryRow(ctx,
		fmt.Sprintf("SELECT t.status FROM %s t WHERE %s FOR UPDATE", table, w.SQL()),
		w.Args()...,
	).Scan(&status)
	if database.IsNoRows(err) {
		return 0, apperr.ErrRequestNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock request: %w", err)
	}
	return status, nil
}

// LockPending is Lock that also requires the request to still be pending.
func LockPending(ctx context.Context, tx pgx.Tx, table string, scope query.Scope, id uuid.UUID) error {
	status, err := Lock(ctx, tx, table, scope, id)
	if err != nil {
		return err
	}
	if status != models.StatusPending {
		return apperr.ErrRequestNotPending
	}
	return nil
}

func SetStatus(ctx context.Context, tx pgx.Tx, table string, id uuid.UUID, status models.RequestStatus) error {
	_, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET status = $1, updated_at = now() WHERE id = $2", table),
		int16(status), id,
	)
	if err != nil {
		return fmt.Errorf("set request status: %w", err)
	}
	return nil
}

// ValidateDecision rejects statuses a reviewer may not set directly.
func ValidateDecision(s models.RequestStatus) error {
	if !s.Decision() {
		return apperr.ErrInvalidInput.WithDetail("status")
	}
	return nil
}

// Event names the webhook event for a status change, e.g.
// "vacation_request.approved".
func Event(resource string, s models.RequestStatus) string {
	return resource + "_request." + s.String()
}

// SoftDelete marks a live row deleted inside scope.
func SoftDelete(ctx context.Context, db database.DBTX, table string, scope query.Scope, id uuid.UUID) (bool, error) {
	u := query.NewUpdate(table).
		Set("is_deleted", true).
		SetExpr("updated_at = now()").
		Where("t.id = %s", id).
		Scope(scope).
		Where("t.is_deleted = false")
	tag, err := db.Exec(ctx, u.SQL(), u.Args()...)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeletePending soft-deletes a request that is still pending. Decided rows,
// withdraw entries included, are refused with ErrRequestDecided.
func DeletePending(ctx context.Context, db database.DBTX, table string, scope query.Scope, id uuid.UUID) error {
	return database.WithTx(ctx, db, func(tx pgx.Tx) error {
		status, err := Lock(ctx, tx, table, scope, id)
		if err != nil {
			return err
		}
		if status != models.StatusPending {
			return apperr.ErrRequestDecided
		}
		_, err = tx.Exec(ctx,
			fmt.Sprintf("UPDATE %s SET is_deleted = true, updated_at = now() WHERE id = $1", table),
			id,
		)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		return nil
	})
}

// MemberOf checks that userID is a live member of provider.
func MemberOf(ctx context.Context, db database.DBTX, provider, userID uuid.UUID) error {
	var ok bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users
		 WHERE id = $1 AND COALESCE(account_provider_id, id) = $2 AND is_deleted = false)`,
		userID, provider,
	).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	if !ok {
		return apperr.ErrUserNotFound
	}
	return nil
}

// SummaryColumns selects the requesting user joined as u.
const SummaryColumns = "u.id, u.name, u.user_type, u.profile_image"

// ScanSummary returns the scan destinations for SummaryColumns.
func ScanSummary(s *models.UserSummary) []any {
	return []any{&s.ID, &s.Name, &s.UserType, &s.ProfileImage}
}
