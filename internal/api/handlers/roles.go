package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/role"
)

type RoleHandler struct {
	svc   *role.Service
	limit int
}

func NewRoleHandler(svc *role.Service, limit int) *RoleHandler {
	return &RoleHandler{svc: svc, limit: limit}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, role.Fields, "roles", h.svc.List)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "role", h.svc.Get)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "role created", h.svc.Create)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	serveUpdate(w, r, "role updated", h.svc.Update)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "role deleted", h.svc.Delete)
}

// Permissions returns the whole permission tree.
func (h *RoleHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Permissions(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "permissions", tree)
}

// RolePermissions returns the tree with the role's grants enabled.
func (h *RoleHandler) RolePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	tree, err := h.svc.RolePermissions(r.Context(), session(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "role permissions", tree)
}

func (h *RoleHandler) ReplacePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req role.ReplacePermissionsRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	tree, err := h.svc.ReplacePermissions(r.Context(), session(r), id, req.PermissionIDs)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "role permissions updated", tree)
}
