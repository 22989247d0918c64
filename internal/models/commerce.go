package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	CreatedBy   uuid.UUID `json:"created_by"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Target struct {
	ID            uuid.UUID    `json:"id"`
	ProviderID    uuid.UUID    `json:"provider_id"`
	CreatedBy     uuid.UUID    `json:"created_by"`
	UserID        uuid.UUID    `json:"user_id"`
	User          *UserSummary `json:"user,omitempty"`
	ProductID     *uuid.UUID   `json:"product_id,omitempty"`
	Title         string       `json:"title"`
	TargetValue   float64      `json:"target_value"`
	AchievedValue float64      `json:"achieved_value"`
	StartDate     Date         `json:"start_date"`
	EndDate       Date         `json:"end_date"`
	Status        TargetStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Progress is the achieved share of the target in percent, capped at 100.
func (t Target) Progress() float64 {
	if t.TargetValue <= 0 {
		return 0
	}
	return math.Min(100, roundCents(t.AchievedValue/t.TargetValue*100))
}

type Salary struct {
	ID                uuid.UUID    `json:"id"`
	ProviderID        uuid.UUID    `json:"provider_id"`
	CreatedBy         uuid.UUID    `json:"created_by"`
	UserID            uuid.UUID    `json:"user_id"`
	User              *UserSummary `json:"user,omitempty"`
	Month             Date         `json:"month"`
	BaseAmount        float64      `json:"base_amount"`
	CommissionsAmount float64      `json:"commissions_amount"`
	DeductionsAmount  float64      `json:"deductions_amount"`
	NetAmount         float64      `json:"net_amount"`
	Note              string       `json:"note"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
