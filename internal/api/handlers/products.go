package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/product"
)

type ProductHandler struct {
	svc       *product.Service
	limit     int
	maxMemory int64
}

func NewProductHandler(svc *product.Service, limit int, maxMemory int64) *ProductHandler {
	return &ProductHandler{svc: svc, limit: limit, maxMemory: maxMemory}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, product.Fields, "products", h.svc.List)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "product", h.svc.Get)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req product.CreateRequest
	if err := decodeForm(r, h.maxMemory, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.Image = formFile(r, "image")
	defer closeUploads(req.Image)

	p, err := h.svc.Create(r.Context(), session(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, "product created", p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req product.UpdateRequest
	if err := decodeForm(r, h.maxMemory, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	req.Image = formFile(r, "image")
	defer closeUploads(req.Image)

	p, err := h.svc.Update(r.Context(), session(r), id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "product updated", p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "product deleted", h.svc.Delete)
}
