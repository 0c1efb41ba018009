package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "salesdash/internal/errors"
	"salesdash/pkg/contracts/domain"
)

// validate is the shared validator instance for query binding.
var validate = validator.New()

// dashboardQuery is the bound and validated form of the dashboard query
// string. Dates stay strings here; conversion to time.Time happens after
// validation so error messages can echo the raw input.
type dashboardQuery struct {
	From      string   `validate:"omitempty,datetime=2006-01-02"`
	To        string   `validate:"omitempty,datetime=2006-01-02"`
	Segments  []string `validate:"-"`
	Customers []string `validate:"-"`
	Threshold *float64 `validate:"omitempty,min=0,max=100"`
	TopN      int      `validate:"omitempty,min=1,max=100"`
}

// bindDashboardQuery parses and validates the dashboard query string.
func bindDashboardQuery(r *http.Request) (dashboardQuery, error) {
	q := r.URL.Query()
	query := dashboardQuery{
		From:      strings.TrimSpace(q.Get("from")),
		To:        strings.TrimSpace(q.Get("to")),
		Segments:  splitList(q.Get("segments")),
		Customers: splitList(q.Get("customers")),
	}

	if raw := strings.TrimSpace(q.Get("threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, apierrors.ErrValidation("threshold", fmt.Sprintf("%q is not a number", raw))
		}
		query.Threshold = &v
	}

	if raw := strings.TrimSpace(q.Get("top_n")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return query, apierrors.ErrValidation("top_n", fmt.Sprintf("%q is not an integer", raw))
		}
		query.TopN = n
	}

	if err := validate.Struct(query); err != nil {
		return query, bindValidationError(err)
	}
	return query, nil
}

// FilterSpec converts the validated query into a domain filter.
func (q dashboardQuery) FilterSpec() domain.FilterSpec {
	spec := domain.FilterSpec{
		Segments:  q.Segments,
		Customers: q.Customers,
	}
	// layouts already validated, errors cannot occur here
	if q.From != "" {
		spec.From, _ = time.Parse("2006-01-02", q.From)
	}
	if q.To != "" {
		spec.To, _ = time.Parse("2006-01-02", q.To)
	}
	return spec
}

// bindValidationError converts validator errors into field-level API
// errors.
func bindValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return apierrors.NewValidationErrors(fields)
}

// splitList splits a comma-separated multi-select value, dropping empty
// entries so trailing commas are harmless.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
