package api

import (
	"errors"
	"strconv"
	"strings"

	"go-hospital/internal/patient"

	"github.com/go-playground/validator/v10"
)

// patientForm is the admin form as submitted. Values are kept as typed so
// a rejected form can be shown again unchanged. Name length is checked by
// Patient.Validate after trimming.
type patientForm struct {
	ID        uint   `form:"id"`
	Name      string `form:"name" binding:"required"`
	BirthDate string `form:"birthDate" binding:"omitempty,datetime=2006-01-02"`
	Sick      bool   `form:"sick"`
	Score     string `form:"score" binding:"omitempty,numeric"`
	Page      int    `form:"page"`
	Keyword   string `form:"keyword"`
}

func formFromPatient(p *patient.Patient) patientForm {
	return patientForm{
		ID:        p.ID,
		Name:      p.Name,
		BirthDate: p.BirthDateString(),
		Sick:      p.IsSick,
		Score:     strconv.Itoa(p.Score),
	}
}

// toPatient converts the form and reports every field the domain rejects.
func (f patientForm) toPatient() (*patient.Patient, patient.ValidationErrors) {
	errs := patient.ValidationErrors{}
	p := &patient.Patient{
		ID:     f.ID,
		Name:   strings.TrimSpace(f.Name),
		IsSick: f.Sick,
	}
	if d, err := patient.ParseBirthDate(strings.TrimSpace(f.BirthDate)); err != nil {
		errs["birthDate"] = "must be a date in yyyy-mm-dd format"
	} else {
		p.BirthDate = d
	}
	if s := strings.TrimSpace(f.Score); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs["score"] = "must be a whole number"
		} else {
			p.Score = n
		}
	}
	var verrs patient.ValidationErrors
	if errors.As(p.Validate(), &verrs) {
		mergeErrors(errs, verrs)
	}
	return p, errs
}

// bindingErrors translates validator failures into form field messages.
// It returns false for errors that are not validation failures.
func bindingErrors(err error) (patient.ValidationErrors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := patient.ValidationErrors{}
	for _, fe := range verrs {
		out[formField(fe.Field())] = validationMessage(fe)
	}
	return out, true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "datetime":
		return "must be a date in yyyy-mm-dd format"
	case "numeric":
		return "must be a whole number"
	default:
		return "is invalid"
	}
}

func formField(structField string) string {
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

// mergeErrors copies src into dst without overwriting messages already set.
func mergeErrors(dst, src patient.ValidationErrors) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}
