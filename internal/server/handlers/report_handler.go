package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/service/reporting"
)

const defaultDailyReportLimit = 7

// ReportHandler serves the stock and analytics screens.
type ReportHandler struct {
	reports Reports
	daily   DailyReportRunner
	logger  *zap.Logger
}

// NewReportHandler constructs the reporting adapter. daily may be nil.
func NewReportHandler(reports Reports, daily DailyReportRunner, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, daily: daily, logger: logger}
}

// Stock returns the stock status table filtered by ?q=.
func (h *ReportHandler) Stock(c *gin.Context) {
	rows, err := h.reports.StockReport(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Sales returns the analytics for ?month=&year=; "all" or empty means any.
func (h *ReportHandler) Sales(c *gin.Context) {
	month, err := periodParam(c.Query("month"))
	if err != nil || month < 0 || month > 12 {
		respondError(c, h.logger, badRequest(err, "month must be 1-12 or all"))
		return
	}
	year, err := periodParam(c.Query("year"))
	if err != nil || year < 0 {
		respondError(c, h.logger, badRequest(err, "year must be a number or all"))
		return
	}

	report, err := h.reports.SalesReport(c.Request.Context(), reporting.Period{Month: month, Year: year})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DailyReports lists the archived daily summaries, newest first.
func (h *ReportHandler) DailyReports(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	if err != nil || limit <= 0 {
		limit = defaultDailyReportLimit
	}

	reports, err := h.reports.RecentDailyReports(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// RunDailyReport generates and sends today's summary now.
func (h *ReportHandler) RunDailyReport(c *gin.Context) {
	if h.daily == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "daily report is not scheduled", "code": "not_scheduled"})
		return
	}
	if err := h.daily.RunDailyReport(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func periodParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
