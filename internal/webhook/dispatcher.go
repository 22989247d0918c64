package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/queue"
)

// Deliverer posts queued events to their webhook endpoints.
type Deliverer struct {
	db     database.DBTX
	client *resty.Client
}

func NewDeliverer(db database.DBTX) *Deliverer {
	return &Deliverer{
		db:     db,
		client: resty.New().SetTimeout(10 * time.Second),
	}
}

// Deliver sends one event. A non-nil error asks the queue to retry.
func (d *Deliverer) Deliver(ctx context.Context, p queue.WebhookDeliverPayload) error {
	id, err := uuid.Parse(p.WebhookID)
	if err != nil {
		return fmt.Errorf("parse webhook id: %w", err)
	}

	var url, secret string
	var active bool
	err = d.db.QueryRow(ctx, "SELECT url, secret, is_active FROM webhooks WHERE id = $1", id).
		Scan(&url, &secret, &active)
	if database.IsNoRows(err) || (err == nil && !active) {
		slog.Info("webhook gone or inactive, dropping delivery", "webhook_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load webhook: %w", err)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Webhook-Event", p.Event).
		SetHeader("X-Webhook-Signature", sign(p.Payload, secret)).
		SetHeader("X-Webhook-ID", id.String()).
		SetBody([]byte(p.Payload)).
		Post(url)

	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	d.recordDelivery(ctx, id, p, status, err)

	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("webhook responded %d", status)
	}
	return nil
}

func (d *Deliverer) recordDelivery(ctx context.Context, id uuid.UUID, p queue.WebhookDeliverPayload, status int, deliveryErr error) {
	var deliveredAt *time.Time
	if deliveryErr == nil && status < 400 {
		now := time.Now()
		deliveredAt = &now
	}

	_, err := d.db.Exec(ctx,
		`INSERT INTO webhook_deliveries (webhook_id, event, payload, response_status, attempts, delivered_at)
		 VALUES ($1, $2, $3, $4, 1, $5)`,
		id, p.Event, []byte(p.Payload), status, deliveredAt,
	)
	if err != nil {
		slog.Error("failed to record webhook delivery", "error", err)
	}
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}
