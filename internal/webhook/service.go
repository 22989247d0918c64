package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/queue"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type Enqueuer interface {
	EnqueueWebhookDeliver(ctx context.Context, p queue.WebhookDeliverPayload) error
}

type Service struct {
	db    database.DBTX
	queue Enqueuer
}

func NewService(db database.DBTX, q Enqueuer) *Service {
	return &Service{db: db, queue: q}
}

type CreateRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1,dive,required"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Webhook, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	eventsJSON, _ := json.Marshal(req.Events)

	var wh models.Webhook
	err = s.db.QueryRow(ctx,
		`INSERT INTO webhooks (provider_id, url, events, secret, is_active)
		 VALUES ($1, $2, $3, $4, true)
		 RETURNING id, provider_id, url, is_active, created_at`,
		sess.ProviderID, req.URL, eventsJSON, secret,
	).Scan(&wh.ID, &wh.ProviderID, &wh.URL, &wh.IsActive, &wh.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert webhook: %w", err)
	}

	wh.Events = req.Events
	// Only returned on creation.
	wh.Secret = secret

	return &wh, nil
}

func (s *Service) List(ctx context.Context, sess *tenant.Session) ([]models.Webhook, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, provider_id, url, events, is_active, created_at
		 FROM webhooks WHERE provider_id = $1 ORDER BY created_at DESC`,
		sess.ProviderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := []models.Webhook{}
	for rows.Next() {
		var wh models.Webhook
		var events []byte
		if err := rows.Scan(&wh.ID, &wh.ProviderID, &wh.URL, &events, &wh.IsActive, &wh.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		_ = json.Unmarshal(events, &wh.Events)
		webhooks = append(webhooks, wh)
	}
	return webhooks, rows.Err()
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM webhooks WHERE id = $1 AND provider_id = $2", id, sess.ProviderID)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Dispatch queues event for every active webhook of the provider subscribed
// to it. Failures are logged; the triggering write has already succeeded.
func (s *Service) Dispatch(ctx context.Context, providerID uuid.UUID, event string, payload any) {
	if s.queue == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal webhook payload", "event", event, "error", err)
		return
	}

	rows, err := s.db.Query(ctx,
		`SELECT id FROM webhooks
		 WHERE provider_id = $1 AND is_active = true AND events @> $2::jsonb`,
		providerID, fmt.Sprintf(`[%q]`, event),
	)
	if err != nil {
		slog.Error("find matching webhooks", "event", event, "error", err)
		return
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		err := s.queue.EnqueueWebhookDeliver(ctx, queue.WebhookDeliverPayload{
			WebhookID: id.String(),
			Event:     event,
			Payload:   body,
		})
		if err != nil {
			slog.Error("enqueue webhook delivery", "webhook_id", id, "event", event, "error", err)
		}
	}
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(b), nil
}
