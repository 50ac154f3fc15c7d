package api

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientForm_ToPatient(t *testing.T) {
	f := patientForm{ID: 7, Name: "  Grace  ", BirthDate: "1999-12-31", Sick: true, Score: " 12 "}
	p, errs := f.toPatient()
	assert.Empty(t, errs)
	assert.Equal(t, uint(7), p.ID)
	assert.Equal(t, "Grace", p.Name)
	assert.Equal(t, "1999-12-31", p.BirthDateString())
	assert.True(t, p.IsSick)
	assert.Equal(t, 12, p.Score)
}

func TestPatientForm_RoundTripsPatient(t *testing.T) {
	f := patientForm{Name: "Heidi", BirthDate: "1980-05-06", Score: "3"}
	p, errs := f.toPatient()
	require.Empty(t, errs)
	assert.Equal(t, f, formFromPatient(p))
}

func TestBindingErrors(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(patientForm{Name: "", BirthDate: "nope", Score: "x"})
	errs, ok := bindingErrors(err)
	require.True(t, ok)
	assert.Equal(t, "must not be empty", errs["name"])
	assert.Equal(t, "must be a date in yyyy-mm-dd format", errs["birthDate"])
	assert.Equal(t, "must be a whole number", errs["score"])

	_, ok = bindingErrors(assert.AnError)
	assert.False(t, ok)
}

func TestPatientForm_LengthCheckedAfterTrim(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	f := patientForm{Name: "Bartholomew Smithers   ", Score: "1"}
	require.NoError(t, v.Struct(f))

	p, errs := f.toPatient()
	assert.Empty(t, errs)
	assert.Equal(t, "Bartholomew Smithers", p.Name)

	_, errs = patientForm{Name: "  Al  "}.toPatient()
	assert.Equal(t, "size must be between 3 and 20", errs["name"])
}
