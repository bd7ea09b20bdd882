package model

import (
	"fmt"
	"strings"
)

// SortField is the single active sort column.
type SortField int

const (
	SortFieldTitle     SortField = iota // Title (locale-aware)
	SortFieldPriority                   // Priority (critical first)
	SortFieldStatus                     // Workflow status
	SortFieldDueDate                    // Due date (undated last)
	SortFieldCreatedAt                  // Creation timestamp
	NumSortFields                       // Sentinel: total number of sort fields
)

// String returns the flag/config spelling of the field.
func (f SortField) String() string {
	switch f {
	case SortFieldTitle:
		return "title"
	case SortFieldPriority:
		return "priority"
	case SortFieldStatus:
		return "status"
	case SortFieldDueDate:
		return "due_date"
	case SortFieldCreatedAt:
		return "created_at"
	default:
		return "unknown"
	}
}

// Label returns a column header label.
func (f SortField) Label() string {
	switch f {
	case SortFieldTitle:
		return "Title"
	case SortFieldPriority:
		return "Priority"
	case SortFieldStatus:
		return "Status"
	case SortFieldDueDate:
		return "Due"
	case SortFieldCreatedAt:
		return "Created"
	default:
		return "Unknown"
	}
}

// ParseSortField parses "title", "priority", "status", "due_date"/"due",
// "created_at"/"created".
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return SortFieldTitle, nil
	case "priority":
		return SortFieldPriority, nil
	case "status":
		return SortFieldStatus, nil
	case "due_date", "due-date", "due":
		return SortFieldDueDate, nil
	case "created_at", "created-at", "created":
		return SortFieldCreatedAt, nil
	default:
		return 0, fmt.Errorf("unknown sort field %q", s)
	}
}

// SortOrder is ascending or descending.
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// String returns "asc" or "desc".
func (o SortOrder) String() string {
	if o == SortDesc {
		return "desc"
	}
	return "asc"
}

// Indicator returns the arrow shown next to the active column.
func (o SortOrder) Indicator() string {
	if o == SortDesc {
		return "▼"
	}
	return "▲"
}

// Toggle returns the opposite order.
func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ParseSortOrder parses "asc" or "desc".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending":
		return SortDesc, nil
	default:
		return SortAsc, fmt.Errorf("unknown sort order %q", s)
	}
}

// SortSpec is the active sort column and direction.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// DefaultSort orders by creation time, newest first.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortFieldCreatedAt, Order: SortDesc}
}

// Toggle applies a header click: the active field flips direction, any other
// field becomes active in ascending order.
func (s SortSpec) Toggle(field SortField) SortSpec {
	if field == s.Field {
		return SortSpec{Field: field, Order: s.Order.Toggle()}
	}
	return SortSpec{Field: field, Order: SortAsc}
}

// String returns "field:order".
func (s SortSpec) String() string {
	return s.Field.String() + ":" + s.Order.String()
}

// ParseSortSpec parses "field" or "field:order".
func ParseSortSpec(s string) (SortSpec, error) {
	name, order, _ := strings.Cut(s, ":")
	field, err := ParseSortField(name)
	if err != nil {
		return SortSpec{}, err
	}
	o, err := ParseSortOrder(order)
	if err != nil {
		return SortSpec{}, err
	}
	return SortSpec{Field: field, Order: o}, nil
}
