package patient

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
)

const (
	NameMinLen = 3
	NameMaxLen = 20
	DateLayout = "2006-01-02"
)

type Patient struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:20;not null;index" json:"name"`
	BirthDate datatypes.Date `json:"birthDate"`
	IsSick    bool           `gorm:"not null" json:"isSick"`
	Score     int            `gorm:"not null" json:"score"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BirthDateString formats the birth date for form inputs; empty when unset.
func (p *Patient) BirthDateString() string {
	t := time.Time(p.BirthDate)
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseBirthDate parses a yyyy-mm-dd value. An empty string yields the zero date.
func ParseBirthDate(s string) (datatypes.Date, error) {
	if s == "" {
		return datatypes.Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "invalid patient: " + strings.Join(parts, "; ")
}

// Validate returns nil when the patient may be persisted.
func (p *Patient) Validate() error {
	errs := ValidationErrors{}
	n := utf8.RuneCountInString(p.Name)
	switch {
	case strings.TrimSpace(p.Name) == "":
		errs["name"] = "must not be empty"
	case n < NameMinLen || n > NameMaxLen:
		errs["name"] = fmt.Sprintf("size must be between %d and %d", NameMinLen, NameMaxLen)
	}
	if p.Score < 0 {
		errs["score"] = "must be greater than or equal to 0"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
