// Package report turns a flat set of milk records into a monthly cost report.
// It is a pure transformation: records are loaded elsewhere and costs are
// always derived from the unit price passed in, so a price change re-prices
// every past record the next time a report is computed.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/milktrack/server/internal/models"
)

// MonthKeyLayout renders a date as a zero-padded MM-YYYY bucket key.
// Zero-padding keeps lexical and chronological ordering in agreement.
const MonthKeyLayout = "01-2006"

// Entry is one record with its cost at the given unit price.
type Entry struct {
	Record models.MilkRecord
	Cost   float64
}

// Report groups a user's records into month buckets with per-month subtotals.
type Report struct {
	// Months holds the bucket keys in chronological order.
	Months []string
	// Buckets maps a month key to its entries, ordered by date then id.
	Buckets map[string][]Entry
	// Totals maps a month key to the bucket's subtotal, rounded half-up to
	// two decimal places.
	Totals map[string]float64
	// TotalCost is the sum of the per-month subtotals.
	TotalCost float64
	// Count is the number of records across all buckets.
	Count int
}

// MonthKey returns the MM-YYYY bucket key for a date.
func MonthKey(date time.Time) string {
	return date.Format(MonthKeyLayout)
}

// Round2 rounds half-up to two decimal places, the currency's minor unit.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Compute builds the monthly report for a set of records at the given unit
// price. An empty record set yields an empty report; a zero price is valid
// and makes every cost zero.
func Compute(records []models.MilkRecord, unitPrice float64) *Report {
	sorted := make([]models.MilkRecord, len(records))
	copy(sorted, records)

	// Date ascending, record id breaking ties, so ordering is deterministic
	// for same-date entries.
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	r := &Report{
		Buckets: make(map[string][]Entry),
		Totals:  make(map[string]float64),
		Count:   len(sorted),
	}

	rawTotals := make(map[string]float64)
	for _, rec := range sorted {
		key := MonthKey(rec.Date)
		if _, seen := r.Buckets[key]; !seen {
			// Records are date-sorted, so first appearance order is
			// chronological.
			r.Months = append(r.Months, key)
		}
		cost := rec.MilkQty * unitPrice
		r.Buckets[key] = append(r.Buckets[key], Entry{Record: rec, Cost: Round2(cost)})
		rawTotals[key] += cost
	}

	for _, key := range r.Months {
		subtotal := Round2(rawTotals[key])
		r.Totals[key] = subtotal
		r.TotalCost += subtotal
	}
	r.TotalCost = Round2(r.TotalCost)

	return r
}
