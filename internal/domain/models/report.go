package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport represents the aggregated daily sales data to be stored in MongoDB.
type DailyReport struct {
	Date          time.Time `bson:"date" json:"date"`
	Transactions  int       `bson:"transactions" json:"transactions"`
	Revenue       float64   `bson:"revenue" json:"revenue"`
	ItemsSold     int       `bson:"items_sold" json:"items_sold"`
	AverageTicket float64   `bson:"average_ticket" json:"average_ticket"`
	MedianTicket  float64   `bson:"median_ticket" json:"median_ticket"`
	PeakHour      int       `bson:"peak_hour" json:"peak_hour"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// StockRank buckets a stock row for ordering: out of stock first, then low, then normal.
type StockRank int

const (
	RankOutOfStock StockRank = iota
	RankLow
	RankNormal
)

// String returns the label shown next to a stock row.
func (r StockRank) String() string {
	switch r {
	case RankOutOfStock:
		return "out_of_stock"
	case RankLow:
		return "low"
	default:
		return "normal"
	}
}

// StockStatus is one row of the stock report.
type StockStatus struct {
	Barcode   string    `json:"barcode" csv:"barcode"`
	Name      string    `json:"name" csv:"name"`
	Stock     int       `json:"stock" csv:"stock"`
	Sold      int       `json:"sold" csv:"sold"`
	Remaining int       `json:"remaining" csv:"remaining"`
	Rank      StockRank `json:"-" csv:"-"`
	Status    string    `json:"status" csv:"status"`
}

// DailyTotal is the revenue of one local calendar date.
type DailyTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// HourCount is the number of transactions that started within one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// SalesSummary condenses a set of sales into headline figures.
type SalesSummary struct {
	Transactions  int             `json:"transactions"`
	Revenue       decimal.Decimal `json:"revenue"`
	ItemsSold     int             `json:"itemsSold"`
	AverageTicket decimal.Decimal `json:"averageTicket"`
	MedianTicket  decimal.Decimal `json:"medianTicket"`
}
