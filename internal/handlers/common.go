package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/diewo77/sales-invoices/internal/httpx"
	"github.com/diewo77/sales-invoices/internal/services"
	"github.com/diewo77/sales-invoices/internal/validation"
)

// validate is the shared request validator. Field names in violation details
// use the json tag so error payloads match the wire format.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs tag validation and converts the result into the violations
// map the API reports as error details.
func checkStruct(req any) validation.Violations {
	v := validation.Violations{}
	err := validate.Struct(req)
	if err == nil {
		return v
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			v[fe.Field()] = fe.Tag()
		}
		return v
	}
	v["body"] = "invalid"
	return v
}

// decodeJSON parses the request body, rejecting malformed JSON up front.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return false
	}
	return true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses and
// envelope codes. Store failures get a generic message; the real error is
// logged, never leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	var nf *services.NotFoundError
	var re *services.RuleError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", ve.Violations)
	case errors.As(err, &nf):
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", nf.Error(), nil)
	case errors.As(err, &re):
		httpx.JSONError(w, http.StatusBadRequest, "BUSINESS_RULE_VIOLATION", re.Error(), nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		httpx.JSONError(w, http.StatusBadRequest, "DUPLICATE_KEY", "a record with this code already exists", nil)
	default:
		log.Error().Err(err).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

// listParams reads the common list query parameters.
func listParams(r *http.Request) services.ListParams {
	q := r.URL.Query()
	p := services.ListParams{
		Search:  q.Get("search"),
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = n
	}
	return p
}

func listMeta[T any](page services.Paged[T]) httpx.ListMeta {
	return httpx.ListMeta{
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}
