package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// SummarizeByDay averages PctInfected within each day and category. Points
// without a defined rate (a state's first observed day) are skipped and
// counted. StdErr is the sample standard deviation over sqrt(n), zero when
// a single state carried the day.
func SummarizeByDay(points []SeriesPoint, excl *Exclusions) []DailySummary {
	type groupKey struct {
		date     time.Time
		category Category
	}
	groups := make(map[groupKey][]float64)
	for _, pt := range points {
		if pt.PctInfected == nil {
			excl.Add(ReasonFirstDayPoint, 1)
			continue
		}
		key := groupKey{date: pt.Date, category: pt.Category}
		groups[key] = append(groups[key], *pt.PctInfected)
	}

	out := make([]DailySummary, 0, len(groups))
	for key, vals := range groups {
		mean, err := stats.Mean(vals)
		if err != nil {
			continue
		}
		summary := DailySummary{
			Date:     key.date,
			Category: key.category,
			MeanPct:  mean,
			N:        len(vals),
		}
		if len(vals) > 1 {
			sd, err := stats.StandardDeviationSample(vals)
			if err == nil {
				summary.StdErr = sd / math.Sqrt(float64(len(vals)))
			}
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Category < out[j].Category
	})
	return out
}
