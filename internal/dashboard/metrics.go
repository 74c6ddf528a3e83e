package dashboard

import (
	"sort"

	"github.com/lineaetica/etica-backend/internal/domain"
)

// Metrics summarizes a filtered report set
type Metrics struct {
	Total     int                 `json:"total"`
	Open      int                 `json:"open"`
	Resolved  int                 `json:"resolved"`
	Anonymous int                 `json:"anonymous"`
	ByArea    []domain.CountByKey `json:"by_area"`
	ByType    []domain.CountByKey `json:"by_type"`
	ByStatus  []domain.CountByKey `json:"by_status"`
}

// ComputeMetrics counts over reports
func ComputeMetrics(reports []domain.Report) Metrics {
	m := Metrics{Total: len(reports)}

	byArea := make(map[string]int64)
	byType := make(map[string]int64)
	byStatus := make(map[string]int64)

	for i := range reports {
		r := &reports[i]
		switch {
		case r.IsOpen():
			m.Open++
		case r.IsResolved():
			m.Resolved++
		}
		if r.Anonymous {
			m.Anonymous++
		}
		byArea[r.Area]++
		byType[r.Type]++
		byStatus[r.Status]++
	}

	m.ByArea = sortedCounts(byArea)
	m.ByType = sortedCounts(byType)
	m.ByStatus = sortedCounts(byStatus)
	return m
}

// sortedCounts orders by count desc, then key asc
func sortedCounts(counts map[string]int64) []domain.CountByKey {
	out := make([]domain.CountByKey, 0, len(counts))
	for k, v := range counts {
		out = append(out, domain.CountByKey{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
