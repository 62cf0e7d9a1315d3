package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

func TestSaveDailyReport(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts", func(mt *mtest.T) {
		repo := newRepository(mt.Client, "kasir", zaptest.NewLogger(t))
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SaveDailyReport(context.Background(), models.DailyReport{
			Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Transactions: 2,
		})
		require.NoError(t, err)
	})

	mt.Run("reports driver errors", func(mt *mtest.T) {
		repo := newRepository(mt.Client, "kasir", zaptest.NewLogger(t))
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not allowed"}))

		err := repo.SaveDailyReport(context.Background(), models.DailyReport{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "daily report")
	})
}

func TestListDailyReports(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes documents", func(mt *mtest.T) {
		repo := newRepository(mt.Client, "kasir", zaptest.NewLogger(t))
		day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "kasir.daily_reports", mtest.FirstBatch,
			bson.D{
				{Key: "date", Value: day},
				{Key: "transactions", Value: 4},
				{Key: "revenue", Value: 52000.0},
				{Key: "peak_hour", Value: 9},
			},
		))

		reports, err := repo.ListDailyReports(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, 4, reports[0].Transactions)
		assert.InDelta(t, 52000, reports[0].Revenue, 0.001)
		assert.Equal(t, 9, reports[0].PeakHour)
		assert.True(t, day.Equal(reports[0].Date))
	})
}
