package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id"`
	AccountProviderID *uuid.UUID `json:"account_provider_id,omitempty"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	RoleID            *uuid.UUID `json:"role_id,omitempty"`
	RoleName          *string    `json:"role_name,omitempty"`
	UserType          UserType   `json:"user_type"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	PasswordHash      string     `json:"-"`
	ProfileImage      string     `json:"profile_image,omitempty"`
	CoverImage        string     `json:"cover_image,omitempty"`
	IsActive          bool       `json:"is_active"`
	Profile           *Profile   `json:"profile,omitempty"`
	CreatedBy         *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserSummary is the slice of a user embedded in other resources.
type UserSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	UserType     UserType  `json:"user_type"`
	ProfileImage string    `json:"profile_image,omitempty"`
}

type CompanyProfile struct {
	CompanyName        string `json:"company_name"`
	CommercialRegister string `json:"commercial_register,omitempty"`
	Address            string `json:"address,omitempty"`
	Logo               string `json:"logo,omitempty"`
}

type DoctorProfile struct {
	Specialty     string `json:"specialty,omitempty"`
	ClinicName    string `json:"clinic_name,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	Logo          string `json:"logo,omitempty"`
}

type PharmacyProfile struct {
	PharmacyName  string `json:"pharmacy_name"`
	LicenseNumber string `json:"license_number,omitempty"`
	Address       string `json:"address,omitempty"`
	Logo          string `json:"logo,omitempty"`
}

// Profile holds exactly one of the three profile payloads, selected by Kind.
type Profile struct {
	Kind     UserType
	Company  *CompanyProfile
	Doctor   *DoctorProfile
	Pharmacy *PharmacyProfile
}

// Logo points at the populated payload's logo so it can be rewritten in place.
func (p *Profile) Logo() *string {
	switch {
	case p.Company != nil:
		return &p.Company.Logo
	case p.Doctor != nil:
		return &p.Doctor.Logo
	case p.Pharmacy != nil:
		return &p.Pharmacy.Logo
	}
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	switch {
	case p.Kind == UserTypeCompany && p.Company != nil:
		return json.Marshal(struct {
			Type UserType `json:"type"`
			*CompanyProfile
		}{p.Kind, p.Company})
	case p.Kind == UserTypeDoctor && p.Doctor != nil:
		return json.Marshal(struct {
			Type UserType `json:"type"`
			*DoctorProfile
		}{p.Kind, p.Doctor})
	case p.Kind == UserTypePharmacy && p.Pharmacy != nil:
		return json.Marshal(struct {
			Type UserType `json:"type"`
			*PharmacyProfile
		}{p.Kind, p.Pharmacy})
	}
	return []byte("null"), nil
}
