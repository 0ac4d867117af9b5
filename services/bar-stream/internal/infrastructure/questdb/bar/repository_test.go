package bar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	mockLogger "github.com/muhammadchandra19/exchange/pkg/logger/mock"
	mockQuestDB "github.com/muhammadchandra19/exchange/pkg/questdb/mock"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar_Upsert(t *testing.T) {
	bucket := time.Unix(1000, 0).UTC()

	testCases := []struct {
		name     string
		mockFn   func(testData barv1.Bar, mock *mockQuestDB.MockQuestDBClient)
		assertFn func(t *testing.T, err error)
		testData barv1.Bar
	}{
		{
			name: "success",
			mockFn: func(testData barv1.Bar, mock *mockQuestDB.MockQuestDBClient) {
				mock.EXPECT().Exec(
					gomock.Any(),
					insertQuery,
					testData.BucketStart,
					testData.Symbol,
					testData.Interval,
					testData.Open,
					testData.High,
					testData.Low,
					testData.Close,
				).Return(nil)
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
			testData: barv1.Bar{Symbol: "XAUUSD", Interval: "1m", BucketStart: bucket, Open: 1, High: 2, Low: 1, Close: 2},
		},
		{
			name: "error - exec fails",
			mockFn: func(testData barv1.Bar, mock *mockQuestDB.MockQuestDBClient) {
				mock.EXPECT().Exec(gomock.Any(), insertQuery, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("exec failed"))
			},
			assertFn: func(t *testing.T, err error) {
				assert.EqualError(t, err, "exec failed")
			},
			testData: barv1.Bar{Symbol: "XAUUSD", Interval: "1m", BucketStart: bucket},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mockQuestDB.NewMockQuestDBClient(ctrl)
			tc.mockFn(tc.testData, client)

			err := NewRepository(client, mockLogger.NewMockInterface(ctrl)).Upsert(context.Background(), tc.testData)
			tc.assertFn(t, err)
		})
	}
}

func TestBar_LoadRecent(t *testing.T) {
	query := "SELECT bucket_start, symbol, granularity, open, high, low, close FROM bars WHERE symbol = $1 AND granularity = $2 ORDER BY bucket_start DESC LIMIT 3"

	scanBar := func(bucket int64, price float64) func(dest ...any) error {
		return func(dest ...any) error {
			*dest[0].(*time.Time) = time.Unix(bucket, 0)
			*dest[1].(*string) = "XAUUSD"
			*dest[2].(*string) = "1m"
			*dest[3].(*float64) = price
			*dest[4].(*float64) = price
			*dest[5].(*float64) = price
			*dest[6].(*float64) = price
			return nil
		}
	}

	testCases := []struct {
		name     string
		mockFn   func(client *mockQuestDB.MockQuestDBClient, rows *mockQuestDB.MockRowsInterface)
		assertFn func(t *testing.T, bars []barv1.Bar, err error)
	}{
		{
			name: "fewer rows than limit come back ascending",
			mockFn: func(client *mockQuestDB.MockQuestDBClient, rows *mockQuestDB.MockRowsInterface) {
				client.EXPECT().Query(gomock.Any(), query, "XAUUSD", "1m").Return(rows, nil)
				gomock.InOrder(
					rows.EXPECT().Next().Return(true),
					rows.EXPECT().Scan(gomock.Any()).DoAndReturn(scanBar(120, 2)),
					rows.EXPECT().Next().Return(true),
					rows.EXPECT().Scan(gomock.Any()).DoAndReturn(scanBar(60, 1)),
					rows.EXPECT().Next().Return(false),
				)
				rows.EXPECT().Err().Return(nil)
				rows.EXPECT().Close()
			},
			assertFn: func(t *testing.T, bars []barv1.Bar, err error) {
				require.NoError(t, err)
				require.Len(t, bars, 2)
				assert.True(t, time.Unix(60, 0).Equal(bars[0].BucketStart))
				assert.Equal(t, 1.0, bars[0].Close)
				assert.True(t, time.Unix(120, 0).Equal(bars[1].BucketStart))
				assert.Equal(t, time.UTC, bars[1].BucketStart.Location())
			},
		},
		{
			name: "query error",
			mockFn: func(client *mockQuestDB.MockQuestDBClient, rows *mockQuestDB.MockRowsInterface) {
				client.EXPECT().Query(gomock.Any(), query, "XAUUSD", "1m").Return(nil, errors.New("table does not exist"))
			},
			assertFn: func(t *testing.T, bars []barv1.Bar, err error) {
				assert.Error(t, err)
				assert.Nil(t, bars)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mockQuestDB.NewMockQuestDBClient(ctrl)
			rows := mockQuestDB.NewMockRowsInterface(ctrl)
			tc.mockFn(client, rows)

			bars, err := NewRepository(client, mockLogger.NewMockInterface(ctrl)).LoadRecent(context.Background(), "XAUUSD", "1m", 3)
			tc.assertFn(t, bars, err)
		})
	}
}

func TestBar_EnsureSchema(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mockQuestDB.NewMockQuestDBClient(ctrl)
	log := mockLogger.NewMockInterface(ctrl)

	client.EXPECT().Exec(gomock.Any(), createTableQuery).Return(nil)
	log.EXPECT().InfoContext(gomock.Any(), "QuestDB bars table ready")

	assert.NoError(t, NewRepository(client, log).EnsureSchema(context.Background()))
}
