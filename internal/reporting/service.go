package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
	"github.com/farlliant/tokopos-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// Service exposes the sales report read path.
type Service interface {
	Daily(ctx context.Context, date time.Time) (*DailyReport, error)
	Monthly(ctx context.Context, year, month int) (*MonthlyReport, error)
	YearlyRevenue(ctx context.Context, year int) (*YearlyReport, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs a reporting service instance.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reporting repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Daily reports one calendar day: totals, profit, percent change against the
// previous day, and the day's individual sales.
func (s *service) Daily(ctx context.Context, date time.Time) (*DailyReport, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	prevStart := dayStart.AddDate(0, 0, -1)

	current, err := s.repo.TotalsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate daily totals")
	}
	previous, err := s.repo.TotalsBetween(ctx, prevStart, dayStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate previous day totals")
	}

	rows, err := s.repo.TransactionsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list daily transactions")
	}

	return &DailyReport{
		Date:          dayStart.Format(dateLayout),
		Count:         current.Count,
		Revenue:       current.Revenue,
		Profit:        current.Profit,
		ChangePercent: percentChange(previous.Revenue, current.Revenue),
		Transactions:  toSaleLines(rows),
	}, nil
}

// Monthly reports one calendar month with a per-day breakdown and percent
// change against the previous month.
func (s *service) Monthly(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid year")
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	prevStart := monthStart.AddDate(0, -1, 0)

	current, err := s.repo.TotalsBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate monthly totals")
	}
	previous, err := s.repo.TotalsBetween(ctx, prevStart, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate previous month totals")
	}

	rows, err := s.repo.TransactionsBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list monthly transactions")
	}

	return &MonthlyReport{
		Year:          year,
		Month:         month,
		Count:         current.Count,
		Revenue:       current.Revenue,
		Quantity:      current.Quantity,
		ChangePercent: percentChange(previous.Revenue, current.Revenue),
		Days:          bucketByDay(rows),
	}, nil
}

// YearlyRevenue reports revenue per month for one year, zero-filling months
// without sales.
func (s *service) YearlyRevenue(ctx context.Context, year int) (*YearlyReport, error) {
	if year < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid year")
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	rows, err := s.repo.TransactionsBetween(ctx, yearStart, yearEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list yearly transactions")
	}

	months := make([]MonthRevenue, 12)
	for i := range months {
		months[i] = MonthRevenue{Month: i + 1, Revenue: decimal.Zero}
	}
	total := decimal.Zero
	for i := range rows {
		idx := int(rows[i].CreatedAt.UTC().Month()) - 1
		months[idx].Revenue = months[idx].Revenue.Add(rows[i].Total)
		total = total.Add(rows[i].Total)
	}

	return &YearlyReport{
		Year:   year,
		Total:  total,
		Months: months,
	}, nil
}

// percentChange follows the dashboard convention: a prior period of zero with
// any current revenue reads as a 100 percent rise, two zero periods as flat.
func percentChange(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

func bucketByDay(rows []models.Transaction) []DayBreakdown {
	var days []DayBreakdown
	index := make(map[string]int)
	for i := range rows {
		key := rows[i].CreatedAt.UTC().Format(dateLayout)
		pos, ok := index[key]
		if !ok {
			pos = len(days)
			index[key] = pos
			days = append(days, DayBreakdown{Date: key, Revenue: decimal.Zero})
		}
		days[pos].Count++
		days[pos].Revenue = days[pos].Revenue.Add(rows[i].Total)
	}
	return days
}

func toSaleLines(rows []models.Transaction) []SaleLine {
	lines := make([]SaleLine, 0, len(rows))
	for i := range rows {
		line := SaleLine{
			ID:          rows[i].ID,
			ProductCode: rows[i].ProductCode,
			Quantity:    rows[i].Quantity,
			UnitPrice:   rows[i].UnitPrice,
			Total:       rows[i].Total,
			RecordedAt:  rows[i].CreatedAt,
		}
		if rows[i].Product != nil {
			line.ProductName = rows[i].Product.Name
		}
		lines = append(lines, line)
	}
	return lines
}
