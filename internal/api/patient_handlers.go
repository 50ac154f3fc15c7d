package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go-hospital/internal/metrics"
	"go-hospital/internal/patient"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func indexURL(page int, keyword string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("keyword", keyword)
	return "/user/index?" + q.Encode()
}

func pageNumbers(total int) []int {
	pages := make([]int, total)
	for i := range pages {
		pages[i] = i
	}
	return pages
}

// GET /user/index?page&size&keyword
func IndexHandler(repo patient.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		keyword := c.Query("keyword")
		page, size := patient.NormalizePageRequest(
			queryInt(c, "page", 0),
			queryInt(c, "size", patient.DefaultPageSize),
		)

		result, err := repo.FindByNameContains(c.Request.Context(), keyword, page, size)
		if err != nil {
			log.Error("Failed to list patients", zap.Error(err))
			renderError(c, http.StatusInternalServerError, "Could not load patients.")
			return
		}
		c.HTML(http.StatusOK, "patients.html", pageData(c, gin.H{
			"title":         "Patients",
			"patients":      result.Content,
			"pages":         pageNumbers(result.TotalPages),
			"currentPage":   result.Number,
			"size":          result.Size,
			"keyword":       keyword,
			"totalElements": result.TotalElements,
		}))
	}
}

// GET /admin/delete?id&page&keyword
func DeletePatientHandler(repo patient.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Query("id"), 10, 64)
		if err != nil {
			renderError(c, http.StatusBadRequest, "Invalid patient id.")
			return
		}
		err = repo.DeleteByID(c.Request.Context(), uint(id))
		switch {
		case err == nil:
			metrics.PatientsDeleted.Inc()
			log.Info("Patient deleted", zap.Uint64("patient_id", id))
		case errors.Is(err, patient.ErrNotFound):
			log.Debug("Delete of absent patient", zap.Uint64("patient_id", id))
		default:
			log.Error("Failed to delete patient", zap.Uint64("patient_id", id), zap.Error(err))
			renderError(c, http.StatusInternalServerError, "Could not delete patient.")
			return
		}
		c.Redirect(http.StatusFound, indexURL(queryInt(c, "page", 0), c.Query("keyword")))
	}
}

// GET /admin/formPatients
func FormPatientsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderForm(c, http.StatusOK, patientForm{}, 0, "", nil)
	}
}

// GET /admin/editPatient?id&page&keyword
func EditPatientHandler(repo patient.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Query("id"), 10, 64)
		if err != nil {
			renderError(c, http.StatusBadRequest, "Invalid patient id.")
			return
		}
		p, err := repo.FindByID(c.Request.Context(), uint(id))
		if errors.Is(err, patient.ErrNotFound) {
			renderError(c, http.StatusNotFound, "Patient not found.")
			return
		}
		if err != nil {
			log.Error("Failed to load patient", zap.Uint64("patient_id", id), zap.Error(err))
			renderError(c, http.StatusInternalServerError, "Could not load patient.")
			return
		}
		renderForm(c, http.StatusOK, formFromPatient(p), queryInt(c, "page", 0), c.Query("keyword"), nil)
	}
}

// POST /admin/save
func SavePatientHandler(repo patient.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f patientForm
		errs := patient.ValidationErrors{}
		if err := c.ShouldBind(&f); err != nil {
			bindErrs, ok := bindingErrors(err)
			if !ok {
				renderError(c, http.StatusBadRequest, "Malformed patient form.")
				return
			}
			errs = bindErrs
		}
		p, convErrs := f.toPatient()
		mergeErrors(errs, convErrs)

		if len(errs) == 0 {
			op := "update"
			if p.ID == 0 {
				op = "create"
			}
			err := repo.Save(c.Request.Context(), p)
			var verrs patient.ValidationErrors
			switch {
			case err == nil:
				metrics.PatientsSaved.WithLabelValues(op).Inc()
				log.Info("Patient saved", zap.Uint("patient_id", p.ID), zap.String("operation", op))
				c.Redirect(http.StatusFound, indexURL(f.Page, f.Keyword))
				return
			case errors.Is(err, patient.ErrNotFound):
				renderError(c, http.StatusNotFound, "Patient not found.")
				return
			case errors.As(err, &verrs):
				mergeErrors(errs, verrs)
			default:
				log.Error("Failed to save patient", zap.Uint("patient_id", p.ID), zap.Error(err))
				renderError(c, http.StatusInternalServerError, "Could not save patient.")
				return
			}
		}

		metrics.ValidationFailures.Inc()
		renderForm(c, http.StatusUnprocessableEntity, f, f.Page, f.Keyword, errs)
	}
}

func renderForm(c *gin.Context, status int, f patientForm, page int, keyword string, errs patient.ValidationErrors) {
	if errs == nil {
		errs = patient.ValidationErrors{}
	}
	title := "New patient"
	if f.ID != 0 {
		title = "Edit patient"
	}
	c.HTML(status, "formPatients.html", pageData(c, gin.H{
		"title":   title,
		"form":    f,
		"page":    page,
		"keyword": keyword,
		"errors":  errs,
	}))
}
