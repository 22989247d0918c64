package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/attachment"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/query"
	"github.com/nikhilbhutani/staffdesk/internal/shape"
	"github.com/nikhilbhutani/staffdesk/internal/tenant"
)

type Files interface {
	Save(ctx context.Context, folder string, up *attachment.Upload) (string, error)
	Discard(ctx context.Context, path string)
}

type SessionInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

type Service struct {
	db       database.DBTX
	files    Files
	sessions SessionInvalidator
	shaper   shape.Shaper
}

func NewService(db database.DBTX, files Files, sessions SessionInvalidator, shaper shape.Shaper) *Service {
	return &Service{db: db, files: files, sessions: sessions, shaper: shaper}
}

var Fields = []query.Field{
	query.Contains("name", "t.name"),
	query.Contains("email", "t.email"),
	query.Prefix("phone", "t.phone"),
	query.Enum("user_type", "t.user_type", models.ParseUserType),
	query.Eq("role_id", "t.role_id", query.KindUUID),
	query.Eq("is_active", "t.is_active", query.KindBool),
	query.Range("created_at", "t.created_at::date", query.KindDate),
}

var table = query.Table{
	From: `users t
		LEFT JOIN roles r ON r.id = t.role_id
		LEFT JOIN company_profiles cp ON cp.user_id = t.id
		LEFT JOIN doctor_profiles dp ON dp.user_id = t.id
		LEFT JOIN pharmacy_profiles pp ON pp.user_id = t.id`,
	Columns: `t.id, t.account_provider_id, COALESCE(t.account_provider_id, t.id), t.role_id, r.name,
		t.user_type, t.name, t.email, t.phone, t.profile_image, t.cover_image, t.is_active,
		t.created_by, t.created_at, t.updated_at, to_jsonb(cp), to_jsonb(dp), to_jsonb(pp)`,
	Live: "t.is_deleted = false",
}

// scope matches every member of the provider, the provider account included.
func scope(sess *tenant.Session) query.Scope {
	return query.Direct("COALESCE(t.account_provider_id, t.id)", sess.ProviderID)
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	var company, doctor, pharmacy []byte
	err := row.Scan(&u.ID, &u.AccountProviderID, &u.ProviderID, &u.RoleID, &u.RoleName,
		&u.UserType, &u.Name, &u.Email, &u.Phone, &u.ProfileImage, &u.CoverImage, &u.IsActive,
		&u.CreatedBy, &u.CreatedAt, &u.UpdatedAt, &company, &doctor, &pharmacy)
	if err != nil {
		return u, err
	}
	u.Profile = shape.ResolveProfile(u.UserType,
		decode[models.CompanyProfile](company),
		decode[models.DoctorProfile](doctor),
		decode[models.PharmacyProfile](pharmacy))
	return u, nil
}

func decode[T any](raw []byte) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func (s *Service) List(ctx context.Context, sess *tenant.Session, spec query.Spec) (query.Result[models.User], error) {
	res, err := query.List(ctx, s.db, table, scope(sess), spec, scanUser)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	s.shaper.Users(res.Items)
	return res, nil
}

func (s *Service) Get(ctx context.Context, sess *tenant.Session, id uuid.UUID) (*models.User, error) {
	u, err := query.Get(ctx, s.db, table, scope(sess), id, scanUser)
	if database.IsNoRows(err) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	s.shaper.User(&u)
	return &u, nil
}

type ProfileInput struct {
	CompanyName        string `json:"company_name"`
	CommercialRegister string `json:"commercial_register"`
	PharmacyName       string `json:"pharmacy_name"`
	Specialty          string `json:"specialty"`
	ClinicName         string `json:"clinic_name"`
	LicenseNumber      string `json:"license_number"`
	Address            string `json:"address"`
}

type CreateRequest struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Email    string          `json:"email" validate:"required,email"`
	Phone    string          `json:"phone" validate:"omitempty,max=32"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	UserType models.UserType `json:"user_type"`
	RoleID   *uuid.UUID      `json:"role_id"`
	Profile  *ProfileInput   `json:"profile"`

	ProfileImage *attachment.Upload `json:"-"`
	CoverImage   *attachment.Upload `json:"-"`
}

func (s *Service) Create(ctx context.Context, sess *tenant.Session, req CreateRequest) (*models.User, error) {
	if req.UserType == models.UserTypeAdmin {
		req.UserType = models.UserTypeEmployee
	}
	if !req.UserType.Valid() {
		return nil, apperr.ErrInvalidInput.WithDetail("user_type")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profileImage, err := s.files.Save(ctx, "users", req.ProfileImage)
	if err != nil {
		return nil, err
	}
	coverImage, err := s.files.Save(ctx, "users", req.CoverImage)
	if err != nil {
		s.files.Discard(ctx, profileImage)
		return nil, err
	}

	var id uuid.UUID
	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := checkRole(ctx, tx, sess, req.RoleID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO users (account_provider_id, role_id, user_type, name, email, phone,
			                    password_hash, profile_image, cover_image, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
			sess.ProviderID, req.RoleID, int16(req.UserType), req.Name, req.Email, req.Phone,
			string(hash), profileImage, coverImage, sess.UserID,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertProfile(ctx, tx, id, req.UserType, req.Profile)
	})
	if err != nil {
		s.files.Discard(ctx, profileImage)
		s.files.Discard(ctx, coverImage)
		if database.IsUniqueViolation(err) {
			return nil, apperr.ErrConflict.WithDetail("email").Wrap(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.Get(ctx, sess, id)
}

func checkRole(ctx context.Context, db database.DBTX, sess *tenant.Session, roleID *uuid.UUID) error {
	if roleID == nil {
		return nil
	}
	var ok bool
	err := db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1 AND provider_id = $2)",
		*roleID, sess.ProviderID,
	).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return apperr.ErrRoleNotFound
	}
	return nil
}

func insertProfile(ctx context.Context, tx pgx.Tx, userID uuid.UUID, t models.UserType, p *ProfileInput) error {
	if p == nil {
		return nil
	}
	var err error
	switch t {
	case models.UserTypeCompany:
		_, err = tx.Exec(ctx,
			`INSERT INTO company_profiles (user_id, company_name, commercial_register, address)
			 VALUES ($1, $2, $3, $4)`,
			userID, p.CompanyName, p.CommercialRegister, p.Address)
	case models.UserTypeDoctor:
		_, err = tx.Exec(ctx,
			`INSERT INTO doctor_profiles (user_id, specialty, clinic_name, license_number)
			 VALUES ($1, $2, $3, $4)`,
			userID, p.Specialty, p.ClinicName, p.LicenseNumber)
	case models.UserTypePharmacy:
		_, err = tx.Exec(ctx,
			`INSERT INTO pharmacy_profiles (user_id, pharmacy_name, license_number, address)
			 VALUES ($1, $2, $3, $4)`,
			userID, p.PharmacyName, p.LicenseNumber, p.Address)
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

type UpdateRequest struct {
	Name     *string    `json:"name" validate:"omitempty,max=200"`
	Phone    *string    `json:"phone" validate:"omitempty,max=32"`
	Password *string    `json:"password" validate:"omitempty,min=8,max=72"`
	RoleID   *uuid.UUID `json:"role_id"`
	IsActive *bool      `json:"is_active"`

	ProfileImage *attachment.Upload `json:"-"`
	CoverImage   *attachment.Upload `json:"-"`
}

// Update changes a member of the provider. Only the owner may change the
// owner account.
func (s *Service) Update(ctx context.Context, sess *tenant.Session, id uuid.UUID, req UpdateRequest) (*models.User, error) {
	if id == sess.ProviderID && !sess.IsOwner() {
		return nil, apperr.ErrCannotModifyOwner
	}
	current, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	u := query.NewUpdate("users")
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.Phone != nil {
		u.Set("phone", *req.Phone)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Set("password_hash", string(hash))
	}
	if req.RoleID != nil {
		if err := checkRole(ctx, s.db, sess, req.RoleID); err != nil {
			return nil, err
		}
		u.Set("role_id", *req.RoleID)
	}
	if req.IsActive != nil {
		u.Set("is_active", *req.IsActive)
	}

	var saved, replaced []string
	if req.ProfileImage != nil || req.CoverImage != nil {
		oldProfile, oldCover, err := s.storedImages(ctx, sess, id)
		if err != nil {
			return nil, err
		}
		for _, img := range []struct {
			column string
			up     *attachment.Upload
			old    string
		}{
			{"profile_image", req.ProfileImage, oldProfile},
			{"cover_image", req.CoverImage, oldCover},
		} {
			if img.up == nil {
				continue
			}
			path, err := s.files.Save(ctx, "users", img.up)
			if err != nil {
				s.discard(ctx, saved)
				return nil, err
			}
			saved = append(saved, path)
			replaced = append(replaced, img.old)
			u.Set(img.column, path)
		}
	}

	if u.Empty() {
		return current, nil
	}

	u.SetExpr("updated_at = now()").Where("t.id = %s", id).Scope(scope(sess)).Where("t.is_deleted = false")
	tag, err := s.db.Exec(ctx, u.SQL(), u.Args()...)
	if err == nil && tag.RowsAffected() == 0 {
		err = apperr.ErrUserNotFound
	}
	if err != nil {
		s.discard(ctx, saved)
		if apperr.From(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.discard(ctx, replaced)
	if s.sessions != nil {
		s.sessions.Invalidate(ctx, id)
	}
	return s.Get(ctx, sess, id)
}

func (s *Service) discard(ctx context.Context, paths []string) {
	for _, p := range paths {
		if p != "" {
			s.files.Discard(ctx, p)
		}
	}
}

// storedImages reads the unshaped image columns of a member.
func (s *Service) storedImages(ctx context.Context, sess *tenant.Session, id uuid.UUID) (string, string, error) {
	w := query.ByID(scope(sess), id)
	w.Add("t.is_deleted = false")
	var profile, cover string
	err := s.db.QueryRow(ctx,
		"SELECT t.profile_image, t.cover_image FROM users t WHERE "+w.SQL(), w.Args()...,
	).Scan(&profile, &cover)
	if database.IsNoRows(err) {
		return "", "", apperr.ErrUserNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("read user images: %w", err)
	}
	return profile, cover, nil
}

func (s *Service) Delete(ctx context.Context, sess *tenant.Session, id uuid.UUID) error {
	if id == sess.UserID || id == sess.ProviderID {
		return apperr.ErrCannotDeleteSelf
	}

	u := query.NewUpdate("users").
		Set("is_deleted", true).
		SetExpr("updated_at = now()").
		Where("t.id = %s", id).
		Scope(scope(sess)).
		Where("t.is_deleted = false")
	tag, err := s.db.Exec(ctx, u.SQL(), u.Args()...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	if s.sessions != nil {
		s.sessions.Invalidate(ctx, id)
	}
	return nil
}
