// Package shape post-processes fetched records before they are written to
// clients. Nothing here performs I/O.
package shape

import (
	"net/url"
	"strings"

	"github.com/nikhilbhutani/staffdesk/internal/models"
)

const attachmentsPath = "/api/v1/attachments"

type Shaper struct {
	baseURL string
}

func New(apiURL string) Shaper {
	return Shaper{baseURL: strings.TrimRight(apiURL, "/")}
}

// URL turns a stored relative path into the attachment endpoint URL. Empty
// and already absolute values are returned unchanged.
func (s Shaper) URL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.baseURL + attachmentsPath + "?filePath=" + url.QueryEscape(path)
}

// ResolveProfile picks the payload matching t and drops the rest. Users whose
// type carries no profile, or whose matching row is missing, get nil.
func ResolveProfile(t models.UserType, c *models.CompanyProfile, d *models.DoctorProfile, p *models.PharmacyProfile) *models.Profile {
	switch {
	case t == models.UserTypeCompany && c != nil:
		return &models.Profile{Kind: t, Company: c}
	case t == models.UserTypeDoctor && d != nil:
		return &models.Profile{Kind: t, Doctor: d}
	case t == models.UserTypePharmacy && p != nil:
		return &models.Profile{Kind: t, Pharmacy: p}
	}
	return nil
}

func (s Shaper) User(u *models.User) {
	if u == nil {
		return
	}
	u.ProfileImage = s.URL(u.ProfileImage)
	u.CoverImage = s.URL(u.CoverImage)
	if u.Profile != nil {
		if logo := u.Profile.Logo(); logo != nil {
			*logo = s.URL(*logo)
		}
	}
}

func (s Shaper) Users(us []models.User) {
	for i := range us {
		s.User(&us[i])
	}
}

func (s Shaper) Summary(u *models.UserSummary) {
	if u != nil {
		u.ProfileImage = s.URL(u.ProfileImage)
	}
}

func (s Shaper) Product(p *models.Product) {
	if p != nil {
		p.Image = s.URL(p.Image)
	}
}

func (s Shaper) Products(ps []models.Product) {
	for i := range ps {
		s.Product(&ps[i])
	}
}

// Summaries rewrites the embedded user of every item that has one.
func Summaries[T any](s Shaper, items []T, user func(*T) *models.UserSummary) {
	for i := range items {
		s.Summary(user(&items[i]))
	}
}
