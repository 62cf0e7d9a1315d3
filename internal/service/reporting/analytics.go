package reporting

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

const (
	dateLayout = "2006-01-02"

	// DefaultTopDays is how many best days the analytics screen lists.
	DefaultTopDays = 6
	// DefaultPeakHours is how many busiest hours the analytics screen lists.
	DefaultPeakHours = 3
)

// Period filters sales by calendar month and year. Zero means any.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Contains reports whether t falls into the period.
func (p Period) Contains(t time.Time) bool {
	if p.Month != 0 && int(t.Month()) != p.Month {
		return false
	}
	if p.Year != 0 && t.Year() != p.Year {
		return false
	}
	return true
}

// SalesByDate sums the totals of the sales within period per local date, in
// the order dates are first seen.
func SalesByDate(sales []models.Sale, period Period, loc *time.Location) []models.DailyTotal {
	loc = orUTC(loc)
	filtered := make([]models.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.Date.IsZero() || !period.Contains(sale.Date.In(loc)) {
			continue
		}
		filtered = append(filtered, sale)
	}
	return groupByDate(filtered, loc)
}

// TopDaysBySales returns the n dates with the highest totals across all sales.
// Ties keep first-seen order.
func TopDaysBySales(sales []models.Sale, n int, loc *time.Location) []models.DailyTotal {
	if n <= 0 {
		n = DefaultTopDays
	}
	days := groupByDate(sales, orUTC(loc))
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Total.GreaterThan(days[j].Total)
	})
	if len(days) > n {
		days = days[:n]
	}
	return days
}

// PeakHours returns the n local hours with the most transactions. Every sale
// is one transaction; ties are broken by the earlier hour.
func PeakHours(sales []models.Sale, n int, loc *time.Location) []models.HourCount {
	if n <= 0 {
		n = DefaultPeakHours
	}
	loc = orUTC(loc)

	var counts [24]int
	for _, sale := range sales {
		if sale.Date.IsZero() {
			continue
		}
		counts[sale.Date.In(loc).Hour()]++
	}

	hours := make([]models.HourCount, 0, 24)
	for hour, count := range counts {
		if count > 0 {
			hours = append(hours, models.HourCount{Hour: hour, Count: count})
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return hours[i].Count > hours[j].Count
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

// Years lists the distinct local years that have sales, ascending.
func Years(sales []models.Sale, loc *time.Location) []int {
	loc = orUTC(loc)
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, sale := range sales {
		if sale.Date.IsZero() {
			continue
		}
		y := sale.Date.In(loc).Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Summarize computes headline figures for a set of sales.
func Summarize(sales []models.Sale) models.SalesSummary {
	summary := models.SalesSummary{
		Transactions:  len(sales),
		Revenue:       decimal.Zero,
		AverageTicket: decimal.Zero,
		MedianTicket:  decimal.Zero,
	}
	if len(sales) == 0 {
		return summary
	}

	tickets := make(stats.Float64Data, 0, len(sales))
	for _, sale := range sales {
		summary.Revenue = summary.Revenue.Add(sale.Total)
		summary.ItemsSold += sale.UnitsSold()
		tickets = append(tickets, sale.Total.InexactFloat64())
	}

	if mean, err := tickets.Mean(); err == nil {
		summary.AverageTicket = decimal.NewFromFloat(mean).Round(2)
	}
	if median, err := tickets.Median(); err == nil {
		summary.MedianTicket = decimal.NewFromFloat(median).Round(2)
	}
	return summary
}

func groupByDate(sales []models.Sale, loc *time.Location) []models.DailyTotal {
	index := make(map[string]int)
	days := make([]models.DailyTotal, 0)
	for _, sale := range sales {
		if sale.Date.IsZero() {
			continue
		}
		date := sale.Date.In(loc).Format(dateLayout)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, models.DailyTotal{Date: date, Total: decimal.Zero})
		}
		days[i].Total = days[i].Total.Add(sale.Total)
	}
	return days
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
