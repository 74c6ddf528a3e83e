package dashboard

import (
	"strings"
	"time"

	"github.com/lineaetica/etica-backend/internal/domain"
)

// Relative time windows over the report creation date
const (
	PeriodLastMonth   = "last_month"
	PeriodLast3Months = "last_3_months"
	PeriodLastYear    = "last_year"
)

// Spanish values sent by the dashboard select box
var periodAliases = map[string]string{
	"ultimo_mes":      PeriodLastMonth,
	"ultimos_3_meses": PeriodLast3Months,
	"ultimo_ano":      PeriodLastYear,
	"ultimo_año":      PeriodLastYear,
}

// Filter holds the dashboard criteria; empty fields match everything
type Filter struct {
	Type        string `form:"type" json:"type"`
	Company     string `form:"company" json:"company"`
	Area        string `form:"area" json:"area"`
	PointOfSale string `form:"point_of_sale" json:"point_of_sale"`
	Period      string `form:"period" json:"period"`
	Search      string `form:"search" json:"search"`
}

// IsEmpty reports whether no criterion is set
func (f Filter) IsEmpty() bool {
	return f.Type == "" && f.Company == "" && f.Area == "" &&
		f.PointOfSale == "" && f.Period == "" && strings.TrimSpace(f.Search) == ""
}

// NormalizePeriod maps aliases to the canonical period keys.
// Unknown values are returned unchanged and match everything.
func NormalizePeriod(period string) string {
	if canonical, ok := periodAliases[period]; ok {
		return canonical
	}
	return period
}

// PeriodStart returns the inclusive lower bound for period, computed from
// the local midnight of now. ok is false for an empty or unknown period.
func PeriodStart(period string, now time.Time) (start time.Time, ok bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch NormalizePeriod(period) {
	case PeriodLastMonth:
		return midnight.AddDate(0, -1, 0), true
	case PeriodLast3Months:
		return midnight.AddDate(0, -3, 0), true
	case PeriodLastYear:
		return midnight.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Apply returns the reports matching every set criterion, keeping order
func Apply(reports []domain.Report, f Filter, now time.Time) []domain.Report {
	out := make([]domain.Report, 0, len(reports))
	if f.IsEmpty() {
		return append(out, reports...)
	}

	start, hasPeriod := PeriodStart(f.Period, now)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	for i := range reports {
		r := &reports[i]

		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.Company != "" && r.Company != f.Company {
			continue
		}
		if f.Area != "" && r.Area != f.Area {
			continue
		}
		if f.PointOfSale != "" && (r.PointOfSale == nil || *r.PointOfSale != f.PointOfSale) {
			continue
		}
		if hasPeriod && r.CreatedAt.Before(start) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Subject), search) &&
			!strings.Contains(strings.ToLower(r.Message), search) {
			continue
		}

		out = append(out, *r)
	}
	return out
}
