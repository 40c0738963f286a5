package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/farlliant/tokopos-backend/api/responses"
	"github.com/farlliant/tokopos-backend/api/validators"
	reportingsvc "github.com/farlliant/tokopos-backend/internal/reporting"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
	"github.com/farlliant/tokopos-backend/pkg/logger"
)

const reportDateLayout = "2006-01-02"

// Report serves daily (?date=YYYY-MM-DD) and monthly (?month=M&year=Y)
// reports from one endpoint, matching the POS clients' query shape.
func Report(svc reportingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reporting service unavailable"))
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
			date, err := time.ParseInLocation(reportDateLayout, raw, time.UTC)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD"))
				return
			}
			report, err := svc.Daily(r.Context(), date)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, report)
			return
		}

		month, err := validators.ParseQueryInt(r, "month", 0, 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", 0, 1, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if month == 0 || year == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date or month and year required"))
			return
		}

		report, err := svc.Monthly(r.Context(), year, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportYearly serves revenue per month for one year (?year=Y).
func ReportYearly(svc reportingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reporting service unavailable"))
			return
		}

		year, err := validators.ParseQueryInt(r, "year", 0, 1, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if year == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "year required"))
			return
		}

		report, err := svc.YearlyRevenue(r.Context(), year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
