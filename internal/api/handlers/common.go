package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/attachment"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
	"github.com/nikhilbhutani/staffdesk/internal/workflow"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.ErrInvalidInput.Wrap(err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return apperr.ErrInvalidInput.WithDetail(strings.Join(fields, ", ")).Wrap(err)
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ErrInvalidInput.WithDetail("body").Wrap(err)
	}
	return check(dst)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// decodeForm reads a JSON body, or a multipart form whose "data" part holds
// the JSON document and whose other parts are files.
func decodeForm(r *http.Request, maxMemory int64, dst any) error {
	if !isMultipart(r) {
		return decode(r, dst)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return apperr.ErrInvalidFile.Wrap(err)
	}
	if data := r.FormValue("data"); data != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return apperr.ErrInvalidInput.WithDetail("data").Wrap(err)
		}
	}
	return check(dst)
}

// formFile returns the named file part, or nil when absent.
func formFile(r *http.Request, field string) *attachment.Upload {
	if r.MultipartForm == nil {
		return nil
	}
	f, h, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	return &attachment.Upload{Filename: h.Filename, Size: h.Size, Reader: f}
}

func closeUploads(ups ...*attachment.Upload) {
	for _, up := range ups {
		if up == nil {
			continue
		}
		if c, ok := up.Reader.(io.Closer); ok {
			c.Close()
		}
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.ErrInvalidInput.WithDetail("id")
	}
	return id, nil
}

func session(r *http.Request) *tenant.Session {
	return tenant.FromContext(r.Context())
}

type (
	listFunc[T any]   func(context.Context, *tenant.Session, query.Spec) (query.Result[T], error)
	getFunc[T any]    func(context.Context, *tenant.Session, uuid.UUID) (*T, error)
	deleteFunc        func(context.Context, *tenant.Session, uuid.UUID) error
	statusFunc[T any] func(context.Context, *tenant.Session, uuid.UUID, models.RequestStatus) (*T, error)
)

func serveList[T any](w http.ResponseWriter, r *http.Request, limit int, fields []query.Field, msg string, list listFunc[T]) {
	spec, err := query.Build(r.URL.Query(), limit, fields...)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	res, err := list(r.Context(), session(r), spec)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Page(w, msg, res)
}

func serveGet[T any](w http.ResponseWriter, r *http.Request, msg string, get getFunc[T]) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	v, err := get(r.Context(), session(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, msg, v)
}

func serveDelete(w http.ResponseWriter, r *http.Request, msg string, del deleteFunc) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := del(r.Context(), session(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, msg, struct{}{})
}

func serveStatus[T any](w http.ResponseWriter, r *http.Request, msg string, update statusFunc[T]) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req workflow.StatusRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v, err := update(r.Context(), session(r), id, req.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, msg, v)
}

// serveCreate decodes a JSON body into Req and answers 201 with the result.
func serveCreate[Req, T any](w http.ResponseWriter, r *http.Request, msg string, create func(context.Context, *tenant.Session, Req) (*T, error)) {
	var req Req
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v, err := create(r.Context(), session(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, msg, v)
}

func serveUpdate[Req, T any](w http.ResponseWriter, r *http.Request, msg string, update func(context.Context, *tenant.Session, uuid.UUID, Req) (*T, error)) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req Req
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v, err := update(r.Context(), session(r), id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, msg, v)
}
