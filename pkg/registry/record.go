package registry

import (
	"strings"

	"github.com/pkg/errors"
)

type (
	// Record is one registered client
	Record struct {
		// ID is assigned on create and never changes; empty for records
		// written before ids existed
		ID    string `json:"id,omitempty"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		City  string `json:"city"`
	}
	// Collection is the ordered set of records persisted as one blob
	Collection []Record
)

// Validate reports ErrInvalidRecord naming every blank required field.
func (r Record) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", r.Name},
		{"email", r.Email},
		{"phone", r.Phone},
		{"city", r.City},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidRecord, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// IndexOf returns the position of the record with the given id or -1.
func (c Collection) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range c {
		if r.ID == id {
			return i
		}
	}
	return -1
}
