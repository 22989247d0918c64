package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/models"
)

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindUUID
	KindDate
	KindBool
	KindEnum
)

type Op int

const (
	OpEq Op = iota
	OpContains
	OpPrefix
	OpRange
)

// Field declares a query-string parameter a resource accepts and the column it filters.
type Field struct {
	Param  string
	Column string
	Kind   Kind
	Op     Op
	parse  func(string) (any, error)
}

func Eq(param, column string, kind Kind) Field {
	return Field{Param: param, Column: column, Kind: kind, Op: OpEq}
}

func Contains(param, column string) Field {
	return Field{Param: param, Column: column, Kind: KindString, Op: OpContains}
}

func Prefix(param, column string) Field {
	return Field{Param: param, Column: column, Kind: KindString, Op: OpPrefix}
}

// Range reads <param>_from and <param>_to.
func Range(param, column string, kind Kind) Field {
	return Field{Param: param, Column: column, Kind: kind, Op: OpRange}
}

// Enum matches a smallint column against a symbolic name or numeric code.
func Enum[T ~int16](param, column string, parse func(string) (T, error)) Field {
	return Field{
		Param:  param,
		Column: column,
		Kind:   KindEnum,
		Op:     OpEq,
		parse: func(s string) (any, error) {
			v, err := parse(s)
			return int16(v), err
		},
	}
}

// Filter is one coerced condition. From/To are set for ranges, Value otherwise.
type Filter struct {
	Column string
	Op     Op
	Value  any
	From   any
	To     any
}

// Spec is the parsed, immutable description of a list request.
type Spec struct {
	Page    Page
	filters []Filter
}

func (s Spec) Filters() []Filter {
	out := make([]Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

// With returns a copy of s with f appended. s itself is unchanged.
func (s Spec) With(f Filter) Spec {
	filters := make([]Filter, len(s.filters), len(s.filters)+1)
	copy(filters, s.filters)
	s.filters = append(filters, f)
	return s
}

func (s Spec) Has(column string) bool {
	for _, f := range s.filters {
		if f.Column == column {
			return true
		}
	}
	return false
}

// Build coerces the recognised parameters in v into a Spec. Unknown
// parameters are ignored; a malformed value is an invalid-input error.
func Build(v url.Values, defaultLimit int, fields ...Field) (Spec, error) {
	page, err := ParsePage(v, defaultLimit)
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Page: page}

	for _, f := range fields {
		if f.Op == OpRange {
			from, hasFrom, err := f.value(v, f.Param+"_from")
			if err != nil {
				return Spec{}, err
			}
			to, hasTo, err := f.value(v, f.Param+"_to")
			if err != nil {
				return Spec{}, err
			}
			if !hasFrom && !hasTo {
				continue
			}
			flt := Filter{Column: f.Column, Op: OpRange}
			if hasFrom {
				flt.From = from
			}
			if hasTo {
				flt.To = to
			}
			spec.filters = append(spec.filters, flt)
			continue
		}

		val, ok, err := f.value(v, f.Param)
		if err != nil {
			return Spec{}, err
		}
		if ok {
			spec.filters = append(spec.filters, Filter{Column: f.Column, Op: f.Op, Value: val})
		}
	}
	return spec, nil
}

func (f Field) value(v url.Values, param string) (any, bool, error) {
	raw := strings.TrimSpace(v.Get(param))
	if raw == "" {
		return nil, false, nil
	}
	val, err := f.coerce(raw)
	if err != nil {
		return nil, false, apperr.ErrInvalidInput.WithDetail(param)
	}
	return val, true, nil
}

func (f Field) coerce(raw string) (any, error) {
	if f.parse != nil {
		return f.parse(raw)
	}
	switch f.Kind {
	case KindInt:
		return strconv.Atoi(raw)
	case KindFloat:
		return strconv.ParseFloat(raw, 64)
	case KindUUID:
		return uuid.Parse(raw)
	case KindDate:
		return models.ParseDate(raw)
	case KindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}
