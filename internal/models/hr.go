package models

import (
	"time"

	"github.com/google/uuid"
)

type Vacation struct {
	ID           uuid.UUID    `json:"id"`
	ProviderID   uuid.UUID    `json:"provider_id"`
	CreatedBy    uuid.UUID    `json:"created_by"`
	Name         string       `json:"name"`
	DurationType DurationType `json:"duration_type"`
	MaxDays      int          `json:"max_days"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type VacationRequest struct {
	ID               uuid.UUID     `json:"id"`
	VacationID       uuid.UUID     `json:"vacation_id"`
	VacationName     string        `json:"vacation_name"`
	UserID           uuid.UUID     `json:"user_id"`
	User             *UserSummary  `json:"user,omitempty"`
	ProviderID       uuid.UUID     `json:"provider_id"`
	CreatedBy        uuid.UUID     `json:"created_by"`
	StartDate        Date          `json:"start_date"`
	EndDate          Date          `json:"end_date"`
	RealVacationDays int           `json:"real_vacation_days"`
	Status           RequestStatus `json:"status"`
	Note             string        `json:"note"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// VacationBalance is a user's usage of one vacation inside the window containing a date.
type VacationBalance struct {
	VacationID    uuid.UUID    `json:"vacation_id"`
	UserID        uuid.UUID    `json:"user_id"`
	DurationType  DurationType `json:"duration_type"`
	WindowStart   Date         `json:"window_start"`
	WindowEnd     Date         `json:"window_end"`
	UsedDays      int          `json:"used_days"`
	MaxDays       int          `json:"max_days"`
	RemainingDays int          `json:"remaining_days"`
}

type Commission struct {
	ID             uuid.UUID      `json:"id"`
	ProviderID     uuid.UUID      `json:"provider_id"`
	CreatedBy      uuid.UUID      `json:"created_by"`
	Name           string         `json:"name"`
	CommissionType CommissionType `json:"commission_type"`
	Value          float64        `json:"value"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Amount is what a sale earns under c.
func (c Commission) Amount(sale float64) float64 {
	if c.CommissionType == CommissionPercentage {
		return roundCents(sale * c.Value / 100)
	}
	return roundCents(c.Value)
}

type CommissionRequest struct {
	ID              uuid.UUID      `json:"id"`
	CommissionID    uuid.UUID      `json:"commission_id"`
	CommissionName  string         `json:"commission_name"`
	CommissionType  CommissionType `json:"commission_type"`
	UserID          uuid.UUID      `json:"user_id"`
	User            *UserSummary   `json:"user,omitempty"`
	ProviderID      uuid.UUID      `json:"provider_id"`
	CreatedBy       uuid.UUID      `json:"created_by"`
	RequestType     RequestType    `json:"request_type"`
	SaleAmount      float64        `json:"sale_amount"`
	Amount          float64        `json:"amount"`
	Status          RequestStatus  `json:"status"`
	SourceRequestID *uuid.UUID     `json:"source_request_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Punishment struct {
	ID              uuid.UUID `json:"id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	CreatedBy       uuid.UUID `json:"created_by"`
	Name            string    `json:"name"`
	DeductionAmount float64   `json:"deduction_amount"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type PunishmentRequest struct {
	ID              uuid.UUID     `json:"id"`
	PunishmentID    uuid.UUID     `json:"punishment_id"`
	PunishmentName  string        `json:"punishment_name"`
	DeductionAmount float64       `json:"deduction_amount"`
	UserID          uuid.UUID     `json:"user_id"`
	User            *UserSummary  `json:"user,omitempty"`
	ProviderID      uuid.UUID     `json:"provider_id"`
	CreatedBy       uuid.UUID     `json:"created_by"`
	Reason          string        `json:"reason"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Point struct {
	ID         uuid.UUID `json:"id"`
	ProviderID uuid.UUID `json:"provider_id"`
	CreatedBy  uuid.UUID `json:"created_by"`
	Name       string    `json:"name"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PointRequest struct {
	ID           uuid.UUID     `json:"id"`
	PointID      *uuid.UUID    `json:"point_id,omitempty"`
	PointName    *string       `json:"point_name,omitempty"`
	UserID       uuid.UUID     `json:"user_id"`
	User         *UserSummary  `json:"user,omitempty"`
	ProviderID   uuid.UUID     `json:"provider_id"`
	CreatedBy    uuid.UUID     `json:"created_by"`
	RequestType  RequestType   `json:"request_type"`
	Points       int           `json:"points"`
	Status       RequestStatus `json:"status"`
	WithdrawalID *uuid.UUID    `json:"withdrawal_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type PointBalance struct {
	UserID    uuid.UUID `json:"user_id"`
	Approved  int       `json:"approved"`
	Pending   int       `json:"pending"`
	Withdrawn int       `json:"withdrawn"`
}
