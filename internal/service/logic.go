package service

import (
	"context"
	"strconv"

	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/events"
	"github.com/Ayman482/nile-dose-cafe-website/internal/metrics"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PurchaseCafe     = "cafe"
	PurchaseCatering = "catering"
	SourceAdjustment = "adjustment"

	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100

	recentTransactionsLimit = 10
)

var pointRates = map[string]int64{
	PurchaseCafe:     1,
	PurchaseCatering: 2,
}

var ten = decimal.NewFromInt(10)

// MaxAmount is the largest purchase amount the ledger and the order tables
// can hold (numeric(12,2)).
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ComputePoints awards rate points per 10 currency units, rounded down.
// Unknown purchase types earn at the cafe rate. Amounts above MaxAmount are
// rejected with ErrValidation.
func ComputePoints(amount decimal.Decimal, purchaseType string) (int64, error) {
	if amount.GreaterThan(MaxAmount) {
		return 0, apperr.Validation("amount must not exceed %s", MaxAmount.StringFixed(2))
	}
	if !amount.IsPositive() {
		return 0, nil
	}
	rate, ok := pointRates[purchaseType]
	if !ok {
		rate = pointRates[PurchaseCafe]
	}
	return amount.Div(ten).Mul(decimal.NewFromInt(rate)).Floor().IntPart(), nil
}

type LoyaltyService struct {
	storage   Storage
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewLoyaltyService(storage Storage, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *LoyaltyService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &LoyaltyService{
		storage:   storage,
		publisher: publisher,
		metrics:   m,
		log:       log.Named("loyalty.service"),
	}
}

func (s *LoyaltyService) EarnPoints(ctx context.Context, userID string, points int64, source, description string) (models.TransactionResponse, error) {
	if userID == "" {
		return models.TransactionResponse{}, apperr.Validation("user id is required")
	}
	if points <= 0 {
		return models.TransactionResponse{}, apperr.Validation("points must be positive, got %d", points)
	}
	if source == "" {
		source = PurchaseCafe
	}

	entry, err := s.storage.EarnPoints(ctx, userID, points, source, description)
	if err != nil {
		s.metrics.RecordOperation("earn", metrics.OutcomeError)
		s.log.Error("earn points failed", zap.String("user_id", userID), zap.Int64("points", points), zap.Error(err))
		return models.TransactionResponse{}, apperr.Storage("earn points", err)
	}

	s.metrics.RecordOperation("earn", metrics.OutcomeSuccess)
	s.metrics.RecordEarn(source, points)
	s.log.Info("points earned",
		zap.String("user_id", userID),
		zap.Int64("points", points),
		zap.String("source", source),
	)
	s.publishPoints(ctx, entry, s.publisher.PublishPointsEarned)
	return toTransactionResponse(entry, false), nil
}

func (s *LoyaltyService) RedeemPoints(ctx context.Context, userID string, points int64, rewardLabel string) (models.RedeemResponse, error) {
	if userID == "" {
		return models.RedeemResponse{}, apperr.Validation("user id is required")
	}
	if points <= 0 {
		return models.RedeemResponse{}, apperr.Validation("points must be positive, got %d", points)
	}

	entry, err := s.storage.RedeemPoints(ctx, userID, points, rewardLabel)
	if err != nil {
		return models.RedeemResponse{}, s.redeemFailed(userID, points, err)
	}
	return s.redeemed(ctx, entry)
}

// RedeemReward redeems the reward's price in points; the description is the
// reward name in the caller's locale.
func (s *LoyaltyService) RedeemReward(ctx context.Context, userID string, rewardID snowflake.ID, locale string) (models.RedeemResponse, error) {
	if userID == "" {
		return models.RedeemResponse{}, apperr.Validation("user id is required")
	}

	label := func(r dbconnector.Reward) string { return r.Name.Data().Get(locale) }
	reward, entry, err := s.storage.RedeemReward(ctx, userID, rewardID, label)
	if err != nil {
		return models.RedeemResponse{}, s.redeemFailed(userID, reward.PointsRequired, err)
	}
	return s.redeemed(ctx, entry)
}

func (s *LoyaltyService) redeemFailed(userID string, points int64, err error) error {
	if apperr.IsDomain(err) {
		s.metrics.RecordOperation("redeem", metrics.OutcomeDenied)
		s.log.Info("redemption declined", zap.String("user_id", userID), zap.Int64("points", points), zap.Error(err))
		return err
	}
	s.metrics.RecordOperation("redeem", metrics.OutcomeError)
	s.log.Error("redeem points failed", zap.String("user_id", userID), zap.Int64("points", points), zap.Error(err))
	return apperr.Storage("redeem points", err)
}

func (s *LoyaltyService) redeemed(ctx context.Context, entry dbconnector.LoyaltyTransaction) (models.RedeemResponse, error) {
	s.metrics.RecordOperation("redeem", metrics.OutcomeSuccess)
	s.metrics.RecordRedeem(-entry.Points)
	s.log.Info("points redeemed",
		zap.String("user_id", entry.UserID),
		zap.Int64("points", -entry.Points),
		zap.String("reward", entry.Description),
	)
	s.publishPoints(ctx, entry, s.publisher.PublishPointsRedeemed)

	balance, err := s.GetBalance(ctx, entry.UserID)
	if err != nil {
		// the redemption is committed; report it even if the fresh balance is unavailable
		s.log.Warn("balance after redemption unavailable", zap.String("user_id", entry.UserID), zap.Error(err))
	}
	return models.RedeemResponse{
		Transaction: toTransactionResponse(entry, false),
		Balance:     balance,
	}, nil
}

// GetBalance returns zeros for a user who never earned anything.
func (s *LoyaltyService) GetBalance(ctx context.Context, userID string) (models.BalanceResponse, error) {
	account, _, err := s.storage.GetAccount(ctx, userID)
	if err != nil {
		return models.BalanceResponse{}, apperr.Storage("get balance", err)
	}
	return models.BalanceResponse{
		Total:     account.TotalPoints,
		Available: account.Available(),
		Redeemed:  account.RedeemedPoints,
	}, nil
}

func (s *LoyaltyService) GetHistory(ctx context.Context, userID string, limit, offset int) (models.HistoryResponse, error) {
	if offset < 0 {
		return models.HistoryResponse{}, apperr.Validation("offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, total, err := s.storage.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return models.HistoryResponse{}, apperr.Storage("get history", err)
	}

	resp := models.HistoryResponse{
		Transactions: make([]models.TransactionResponse, len(entries)),
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}
	for i, entry := range entries {
		resp.Transactions[i] = toTransactionResponse(entry, false)
	}
	return resp, nil
}

func (s *LoyaltyService) Stats(ctx context.Context) (models.LoyaltyStats, error) {
	totals, err := s.storage.LoyaltyTotals(ctx)
	if err != nil {
		return models.LoyaltyStats{}, apperr.Storage("loyalty totals", err)
	}
	recent, err := s.storage.RecentTransactions(ctx, recentTransactionsLimit)
	if err != nil {
		return models.LoyaltyStats{}, apperr.Storage("recent transactions", err)
	}

	stats := models.LoyaltyStats{
		TotalUsers:         totals.Accounts,
		TotalPoints:        totals.Total,
		RedeemedPoints:     totals.Redeemed,
		AvailablePoints:    totals.Total - totals.Redeemed,
		RecentTransactions: make([]models.TransactionResponse, len(recent)),
	}
	for i, entry := range recent {
		stats.RecentTransactions[i] = toTransactionResponse(entry, true)
	}
	return stats, nil
}

func (s *LoyaltyService) publishPoints(ctx context.Context, entry dbconnector.LoyaltyTransaction, publish func(context.Context, events.PointsEvent) error) {
	event := events.PointsEvent{
		TransactionID: strconv.FormatInt(entry.ID.Int64(), 10),
		UserID:        entry.UserID,
		Points:        entry.Points,
		Source:        entry.Source,
		Description:   entry.Description,
		OccurredAt:    entry.CreatedAt,
	}
	if err := publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn("failed to publish loyalty event", zap.String("user_id", entry.UserID), zap.Error(err))
	}
}
