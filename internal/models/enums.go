package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Enums are stored as smallint codes and always leave the API as names.

type enumSet[T ~int16] struct {
	kind   string
	names  map[T]string
	values map[string]T
}

func newEnumSet[T ~int16](kind string, names map[T]string) enumSet[T] {
	values := make(map[string]T, len(names))
	for v, n := range names {
		values[n] = v
	}
	return enumSet[T]{kind: kind, names: names, values: values}
}

func (s enumSet[T]) name(v T) string {
	if n, ok := s.names[v]; ok {
		return n
	}
	return "unknown"
}

func (s enumSet[T]) valid(v T) bool {
	_, ok := s.names[v]
	return ok
}

// parse accepts the symbolic name or the numeric code.
func (s enumSet[T]) parse(raw string) (T, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if v, ok := s.values[raw]; ok {
		return v, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 16); err == nil && s.valid(T(n)) {
		return T(n), nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", s.kind, raw)
}

func (s enumSet[T]) marshal(v T) ([]byte, error) {
	if !s.valid(v) {
		return nil, fmt.Errorf("invalid %s %d", s.kind, v)
	}
	return []byte(s.names[v]), nil
}

func (s enumSet[T]) unmarshal(dst *T, b []byte) error {
	v, err := s.parse(string(b))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

type UserType int16

const (
	UserTypeAdmin    UserType = 0
	UserTypeCompany  UserType = 1
	UserTypeDoctor   UserType = 2
	UserTypePharmacy UserType = 3
	UserTypeEmployee UserType = 4
)

var userTypes = newEnumSet("user_type", map[UserType]string{
	UserTypeAdmin:    "admin",
	UserTypeCompany:  "company",
	UserTypeDoctor:   "doctor",
	UserTypePharmacy: "pharmacy",
	UserTypeEmployee: "employee",
})

func (t UserType) String() string                { return userTypes.name(t) }
func (t UserType) Valid() bool                   { return userTypes.valid(t) }
func (t UserType) MarshalText() ([]byte, error)  { return userTypes.marshal(t) }
func (t *UserType) UnmarshalText(b []byte) error { return userTypes.unmarshal(t, b) }

func ParseUserType(s string) (UserType, error) { return userTypes.parse(s) }

// IsProvider reports whether users of this type own a tenant.
func (t UserType) IsProvider() bool {
	switch t {
	case UserTypeAdmin, UserTypeCompany, UserTypeDoctor, UserTypePharmacy:
		return true
	}
	return false
}

type DurationType int16

const (
	DurationMonthly DurationType = 1
	DurationYearly  DurationType = 2
)

var durationTypes = newEnumSet("duration_type", map[DurationType]string{
	DurationMonthly: "monthly",
	DurationYearly:  "yearly",
})

func (t DurationType) String() string                { return durationTypes.name(t) }
func (t DurationType) Valid() bool                   { return durationTypes.valid(t) }
func (t DurationType) MarshalText() ([]byte, error)  { return durationTypes.marshal(t) }
func (t *DurationType) UnmarshalText(b []byte) error { return durationTypes.unmarshal(t, b) }

func ParseDurationType(s string) (DurationType, error) { return durationTypes.parse(s) }

type CommissionType int16

const (
	CommissionPercentage CommissionType = 1
	CommissionFixed      CommissionType = 2
)

var commissionTypes = newEnumSet("commission_type", map[CommissionType]string{
	CommissionPercentage: "percentage",
	CommissionFixed:      "fixed",
})

func (t CommissionType) String() string                { return commissionTypes.name(t) }
func (t CommissionType) Valid() bool                   { return commissionTypes.valid(t) }
func (t CommissionType) MarshalText() ([]byte, error)  { return commissionTypes.marshal(t) }
func (t *CommissionType) UnmarshalText(b []byte) error { return commissionTypes.unmarshal(t, b) }

func ParseCommissionType(s string) (CommissionType, error) { return commissionTypes.parse(s) }

type RequestStatus int16

const (
	StatusPending   RequestStatus = 1
	StatusApproved  RequestStatus = 2
	StatusRejected  RequestStatus = 3
	StatusWithdrawn RequestStatus = 4
)

var requestStatuses = newEnumSet("status", map[RequestStatus]string{
	StatusPending:   "pending",
	StatusApproved:  "approved",
	StatusRejected:  "rejected",
	StatusWithdrawn: "withdrawn",
})

func (s RequestStatus) String() string                { return requestStatuses.name(s) }
func (s RequestStatus) Valid() bool                   { return requestStatuses.valid(s) }
func (s RequestStatus) MarshalText() ([]byte, error)  { return requestStatuses.marshal(s) }
func (s *RequestStatus) UnmarshalText(b []byte) error { return requestStatuses.unmarshal(s, b) }

func ParseRequestStatus(s string) (RequestStatus, error) { return requestStatuses.parse(s) }

// Decision reports whether s is a status a reviewer may set on a pending request.
func (s RequestStatus) Decision() bool {
	return s == StatusApproved || s == StatusRejected
}

type RequestType int16

const (
	RequestEarn     RequestType = 1
	RequestWithdraw RequestType = 2
)

var requestTypes = newEnumSet("request_type", map[RequestType]string{
	RequestEarn:     "earn",
	RequestWithdraw: "withdraw",
})

func (t RequestType) String() string                { return requestTypes.name(t) }
func (t RequestType) Valid() bool                   { return requestTypes.valid(t) }
func (t RequestType) MarshalText() ([]byte, error)  { return requestTypes.marshal(t) }
func (t *RequestType) UnmarshalText(b []byte) error { return requestTypes.unmarshal(t, b) }

func ParseRequestType(s string) (RequestType, error) { return requestTypes.parse(s) }

type TargetStatus int16

const (
	TargetInProgress TargetStatus = 1
	TargetAchieved   TargetStatus = 2
	TargetMissed     TargetStatus = 3
)

var targetStatuses = newEnumSet("target_status", map[TargetStatus]string{
	TargetInProgress: "in_progress",
	TargetAchieved:   "achieved",
	TargetMissed:     "missed",
})

func (s TargetStatus) String() string                { return targetStatuses.name(s) }
func (s TargetStatus) Valid() bool                   { return targetStatuses.valid(s) }
func (s TargetStatus) MarshalText() ([]byte, error)  { return targetStatuses.marshal(s) }
func (s *TargetStatus) UnmarshalText(b []byte) error { return targetStatuses.unmarshal(s, b) }

func ParseTargetStatus(s string) (TargetStatus, error) { return targetStatuses.parse(s) }
