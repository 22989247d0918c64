package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/user"
)

type UserHandler struct {
	svc       *user.Service
	limit     int
	maxMemory int64
}

func NewUserHandler(svc *user.Service, limit int, maxMemory int64) *UserHandler {
	return &UserHandler{svc: svc, limit: limit, maxMemory: maxMemory}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, user.Fields, "users", h.svc.List)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "user", h.svc.Get)
}

// Create accepts JSON or a multipart form carrying profile_image and
// cover_image parts.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req user.CreateRequest
	if err := decodeForm(r, h.maxMemory, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.ProfileImage = formFile(r, "profile_image")
	req.CoverImage = formFile(r, "cover_image")
	defer closeUploads(req.ProfileImage, req.CoverImage)

	u, err := h.svc.Create(r.Context(), session(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, "user created", u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req user.UpdateRequest
	if err := decodeForm(r, h.maxMemory, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.ProfileImage = formFile(r, "profile_image")
	req.CoverImage = formFile(r, "cover_image")
	defer closeUploads(req.ProfileImage, req.CoverImage)

	u, err := h.svc.Update(r.Context(), session(r), id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "user updated", u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "user deleted", h.svc.Delete)
}
