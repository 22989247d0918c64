package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/salary"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SalaryHandler struct {
	svc   *salary.Service
	limit int
}

func NewSalaryHandler(svc *salary.Service, limit int) *SalaryHandler {
	return &SalaryHandler{svc: svc, limit: limit}
}

func (h *SalaryHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, salary.Fields, "salaries", h.svc.List)
}

func (h *SalaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "salary", h.svc.Get)
}

func (h *SalaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "salary created", h.svc.Create)
}

func (h *SalaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "salary deleted", h.svc.Delete)
}

// Export streams every salary matching the list filters as a workbook.
func (h *SalaryHandler) Export(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Build(r.URL.Query(), h.limit, salary.Fields...)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	rows, err := h.svc.All(r.Context(), session(r), spec)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := salary.WriteXLSX(&buf, rows); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+salary.ExportName(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
