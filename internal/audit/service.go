package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type Service struct {
	db database.DBTX
}

func NewService(db database.DBTX) *Service {
	return &Service{db: db}
}

type LogEntry struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]any
	IPAddress    string
}

func (s *Service) Log(ctx context.Context, sess *tenant.Session, entry LogEntry) error {
	details, _ := json.Marshal(entry.Details)
	if entry.Details == nil {
		details = []byte("{}")
	}

	var ip *netip.Addr
	if entry.IPAddress != "" {
		parsed, err := netip.ParseAddr(entry.IPAddress)
		if err == nil {
			ip = &parsed
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (provider_id, user_id, action, resource_type, resource_id, details, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ProviderID, sess.UserID, entry.Action, entry.ResourceType, entry.ResourceID, details, ip,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

var Fields = []query.Field{
	query.Eq("action", "t.action", query.KindString),
	query.Eq("resource_type", "t.resource_type", query.KindString),
	query.Eq("user_id", "t.user_id", query.KindUUID),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From:    "audit_logs t",
	Columns: "t.id, t.provider_id, t.user_id, t.action, t.resource_type, t.resource_id, t.details, t.ip_address, t.created_at",
}

func scanLog(row pgx.Row) (models.AuditLog, error) {
	var l models.AuditLog
	err := row.Scan(&l.ID, &l.ProviderID, &l.UserID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.IPAddress, &l.CreatedAt)
	return l, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.AuditLog], error) {
	res, err := query.List(ctx, s.db, table, sess.Direct(), spec, scanLog)
	if err != nil {
		return res, fmt.Errorf("list audit logs: %w", err)
	}
	return res, nil
}

// Middleware records every successful mutating request made with a session.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		sess := tenant.FromContext(r.Context())
		if sess == nil || ww.Status() >= 400 {
			return
		}

		entry := LogEntry{
			Action:    r.Method + " " + routePattern(r),
			IPAddress: clientIP(r),
		}
		entry.ResourceType, entry.ResourceID = resource(r)
		if err := s.Log(r.Context(), sess, entry); err != nil {
			slog.Warn("audit log failed", "action", entry.Action, "error", err)
		}
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// resource derives the resource type from the first path segment after the
// version prefix and the id from the {id} URL parameter.
func resource(r *http.Request) (string, *uuid.UUID) {
	segs := strings.Split(strings.TrimPrefix(routePattern(r), "/api/v1/"), "/")
	kind := segs[0]
	if len(segs) > 1 && segs[1] == "requests" {
		kind += "/requests"
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return kind, nil
	}
	return kind, &id
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
