package models

import (
	"time"

	"github.com/google/uuid"
)

type Role struct {
	ID          uuid.UUID  `json:"id"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	UsersCount  int        `json:"users_count"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Permission struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Key       string     `json:"key"`
	NameEN    string     `json:"name_en"`
	NameAR    string     `json:"name_ar"`
	SortOrder int        `json:"sort_order"`
	Enabled   bool       `json:"enabled"`
}

// PermissionNode is a permission with its children grouped beneath it.
type PermissionNode struct {
	Permission
	Children []*PermissionNode `json:"children"`
}
