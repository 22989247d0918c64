package auth

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type Permission = string

const (
	PermUsersRead         Permission = "users:read"
	PermUsersWrite        Permission = "users:write"
	PermUsersDelete       Permission = "users:delete"
	PermRolesRead         Permission = "roles:read"
	PermRolesWrite        Permission = "roles:write"
	PermRolesDelete       Permission = "roles:delete"
	PermVacationsRead     Permission = "vacations:read"
	PermVacationsWrite    Permission = "vacations:write"
	PermVacationsDelete   Permission = "vacations:delete"
	PermCommissionsRead   Permission = "commissions:read"
	PermCommissionsWrite  Permission = "commissions:write"
	PermCommissionsDelete Permission = "commissions:delete"
	PermPunishmentsRead   Permission = "punishments:read"
	PermPunishmentsWrite  Permission = "punishments:write"
	PermPunishmentsDelete Permission = "punishments:delete"
	PermProductsRead      Permission = "products:read"
	PermProductsWrite     Permission = "products:write"
	PermProductsDelete    Permission = "products:delete"
	PermTargetsRead       Permission = "targets:read"
	PermTargetsWrite      Permission = "targets:write"
	PermTargetsDelete     Permission = "targets:delete"
	PermPointsRead        Permission = "points:read"
	PermPointsWrite       Permission = "points:write"
	PermPointsDelete      Permission = "points:delete"
	PermSalariesRead      Permission = "salaries:read"
	PermSalariesWrite     Permission = "salaries:write"
	PermSalariesDelete    Permission = "salaries:delete"
	PermSettingsAudit     Permission = "settings:audit"
	PermSettingsWebhooks  Permission = "settings:webhooks"
)

// RequirePermission rejects callers whose session lacks perm.
func RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := tenant.FromContext(r.Context())
			if sess == nil {
				respond.Error(w, r, apperr.ErrUnauthenticated)
				return
			}
			if !sess.Can(perm) {
				respond.Error(w, r, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
