package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	"github.com/Ayman482/nile-dose-cafe-website/internal/events"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var memDBSeq atomic.Int64

func newTestStorage(t *testing.T) (*dbconnector.DBConnector, *clock.FakeClock) {
	t.Helper()
	dsn := fmt.Sprintf("file:service_memdb_%d?mode=memory&cache=shared", memDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	conn := dbconnector.NewDBConnector(db, node, clk)
	require.NoError(t, conn.DBInitialize())
	return conn, clk
}

// storageMock overrides only the methods a test sets expectations for;
// anything else panics through the nil embedded interface.
type storageMock struct {
	mock.Mock
	Storage
}

func (m *storageMock) EarnPoints(ctx context.Context, userID string, points int64, source, description string) (dbconnector.LoyaltyTransaction, error) {
	args := m.Called(ctx, userID, points, source, description)
	return args.Get(0).(dbconnector.LoyaltyTransaction), args.Error(1)
}

func (m *storageMock) RedeemPoints(ctx context.Context, userID string, points int64, label string) (dbconnector.LoyaltyTransaction, error) {
	args := m.Called(ctx, userID, points, label)
	return args.Get(0).(dbconnector.LoyaltyTransaction), args.Error(1)
}

func (m *storageMock) GetAccount(ctx context.Context, userID string) (dbconnector.LoyaltyAccount, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(dbconnector.LoyaltyAccount), args.Bool(1), args.Error(2)
}

type publisherMock struct {
	mock.Mock
	events.NoopPublisher
}

func (m *publisherMock) PublishPointsEarned(ctx context.Context, event events.PointsEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *publisherMock) PublishPointsRedeemed(ctx context.Context, event events.PointsEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *publisherMock) PublishOrderSubmitted(ctx context.Context, event events.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *publisherMock) PublishOrderStatusChanged(ctx context.Context, event events.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}
