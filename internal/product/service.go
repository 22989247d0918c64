package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/attachment"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
	"github.com/nikhilbhutani/staffdesk/internal/workflow"
)

const folder = "products"

type Files interface {
	Save(ctx context.Context, folder string, up *attachment.Upload) (string, error)
	Discard(ctx context.Context, path string)
}

type Service struct {
	db     database.DBTX
	files  Files
	shaper shape.Shaper
}

func NewService(db database.DBTX, files Files, shaper shape.Shaper) *Service {
	return &Service{db: db, files: files, shaper: shaper}
}

var Fields = []query.Field{
	query.Contains("name", "t.name"),
	query.Range("price", "t.price", query.KindFloat),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From:    "products t",
	Columns: "t.id, t.provider_id, t.created_by, t.name, t.description, t.price, t.image, t.created_at, t.updated_at",
	Live:    "t.is_deleted = false",
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.ProviderID, &p.CreatedBy, &p.Name, &p.Description, &p.Price, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.Product], error) {
	res, err := query.List(ctx, s.db, table, sess.Direct(), spec, scanProduct)
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	s.shaper.Products(res.Items)
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.Product, error) {
	p, err := query.Get(ctx, s.db, table, sess.Direct(), id, scanProduct)
	if database.IsNoRows(err) {
		return nil, apperr.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	s.shaper.Product(&p)
	return &p, nil
}

type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`

	Image *attachment.Upload `json:"-"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.Product, error) {
	image, err := s.files.Save(ctx, folder, req.Image)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(ctx,
		`INSERT INTO products (provider_id, created_by, name, description, price, image)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		sess.ProviderID, sess.UserID, req.Name, req.Description, req.Price, image,
	).Scan(&id)
	if err != nil {
		s.files.Discard(ctx, image)
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.Get(ctx, sess, id)
}

type UpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`

	Image *attachment.Upload `json:"-"`
}

// Update applies the given fields. A new image replaces the stored one,
// whose file is discarded once the row points at the new path.
func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.Product, error) {
	u := query.NewUpdate("products")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.Description != nil {
		u.Set("description", *req.Description)
	}
	if req.Price != nil {
		u.Set("price", *req.Price)
	}

	var old, image string
	if req.Image != nil {
		var err error
		if old, err = s.storedImage(ctx, sess, id); err != nil {
			return nil, err
		}
		if image, err = s.files.Save(ctx, folder, req.Image); err != nil {
			return nil, err
		}
		u.Set("image", image)
	}
	if u.Empty() {
		return s.Get(ctx, sess, id)
	}

	u.SetExpr("updated_at = now()").
		Where("t.id = %s", id).
		Scope(sess.Direct()).
		Where("t.is_deleted = false")
	tag, err := s.db.Exec(ctx, u.SQL(), u.Args()...)
	if err == nil && tag.RowsAffected() == 0 {
		err = apperr.ErrProductNotFound
	}
	if err != nil {
		s.files.Discard(ctx, image)
		if apperr.From(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.files.Discard(ctx, old)
	return s.Get(ctx, sess, id)
}

func (s *Service) storedImage(ctx context.Context, sess *tenant.Session, id uuid.UUID) (string, error) {
	w := query.ByID(sess.Direct(), id)
	w.Add("t.is_deleted = false")
	var image string
	err := s.db.QueryRow(ctx, "SELECT t.image FROM products t WHERE "+w.SQL(), w.Args()...).Scan(&image)
	if database.IsNoRows(err) {
		return "", apperr.ErrProductNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read product image: %w", err)
	}
	return image, nil
}

// Delete soft-deletes the product. Its image stays for the audit trail.
func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	ok, err := workflow.SoftDelete(ctx, s.db, "products", sess.Direct(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrProductNotFound
	}
	return nil
}
