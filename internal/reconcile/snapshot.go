// Package reconcile compares an agent's roster with an uploaded batch.
// Everything here is pure; loading snapshots from the database lives in the
// services package.
package reconcile

import (
	"sort"
	"strings"
)

type FieldName string

const (
	FieldPersonKey   FieldName = "person_key"
	FieldFirstName   FieldName = "first_name"
	FieldLastName    FieldName = "last_name"
	FieldEmail       FieldName = "email"
	FieldPhone       FieldName = "phone"
	FieldDistrict    FieldName = "district"
	FieldAddressNote FieldName = "address_note"
	FieldNotes       FieldName = "notes"
	FieldStatusKey   FieldName = "status_key"
)

// ComparedFields is the fixed comparison order. The person key is the identity
// and is never reported as changed.
var ComparedFields = []FieldName{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPhone,
	FieldDistrict,
	FieldAddressNote,
	FieldNotes,
	FieldStatusKey,
}

// Fields is the comparable view of one roster row or staging row. Missing
// values are "".
type Fields struct {
	PersonKey   string `json:"person_key"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	District    string `json:"district"`
	AddressNote string `json:"address_note"`
	Notes       string `json:"notes"`
	StatusKey   string `json:"status_key"`
}

func (f Fields) Value(name FieldName) string {
	switch name {
	case FieldPersonKey:
		return f.PersonKey
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldDistrict:
		return f.District
	case FieldAddressNote:
		return f.AddressNote
	case FieldNotes:
		return f.Notes
	case FieldStatusKey:
		return f.StatusKey
	}
	return ""
}

// Trimmed returns f with every value trimmed.
func (f Fields) Trimmed() Fields {
	return Fields{
		PersonKey:   strings.TrimSpace(f.PersonKey),
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		District:    strings.TrimSpace(f.District),
		AddressNote: strings.TrimSpace(f.AddressNote),
		Notes:       strings.TrimSpace(f.Notes),
		StatusKey:   strings.TrimSpace(f.StatusKey),
	}
}

// Snapshot maps person key to fields.
type Snapshot map[string]Fields

// Add stores the trimmed row. Rows whose key is blank are dropped; a later row
// for the same key replaces an earlier one.
func (s Snapshot) Add(f Fields) bool {
	f = f.Trimmed()
	if f.PersonKey == "" {
		return false
	}
	s[f.PersonKey] = f
	return true
}

// Keys returns the person keys in lexicographic order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
