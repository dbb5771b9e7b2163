package service

import (
	"context"
	"testing"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRewardCatalog(t *testing.T) {
	storage, _ := newTestStorage(t)
	catalog := NewRewardCatalog(storage, zap.NewNop())
	ctx := context.Background()

	coffee, err := catalog.Save(ctx, 0, models.RewardRequest{
		Name:           models.LocalizedText{"EN": " Free Coffee ", "ar": "قهوة مجانية"},
		PointsRequired: 50,
	})
	require.NoError(t, err)
	assert.True(t, coffee.Active)
	assert.Equal(t, models.LocalizedText{"en": "Free Coffee", "ar": "قهوة مجانية"}, coffee.Name)

	_, err = catalog.Save(ctx, 0, models.RewardRequest{Name: models.LocalizedText{"en": "Mug"}, PointsRequired: 20})
	require.NoError(t, err)

	active, err := catalog.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(20), active[0].PointsRequired)

	off := false
	_, err = catalog.Save(ctx, coffee.ID, models.RewardRequest{Name: models.LocalizedText{"en": "Free Coffee"}, PointsRequired: 60, Active: &off})
	require.NoError(t, err)

	active, err = catalog.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := catalog.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = catalog.Save(ctx, 0, models.RewardRequest{Name: models.LocalizedText{"ar": "كعكة"}, PointsRequired: 10})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = catalog.Save(ctx, 0, models.RewardRequest{Name: models.LocalizedText{"en": "Cake"}, PointsRequired: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = catalog.Save(ctx, snowflake.ID(7), models.RewardRequest{Name: models.LocalizedText{"en": "Cake"}, PointsRequired: 10})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, catalog.Delete(ctx, coffee.ID))
	assert.ErrorIs(t, catalog.Delete(ctx, coffee.ID), apperr.ErrNotFound)
}

func TestRedeemReward(t *testing.T) {
	storage, _ := newTestStorage(t)
	catalog := NewRewardCatalog(storage, zap.NewNop())
	loyalty := NewLoyaltyService(storage, nil, nil, zap.NewNop())
	ctx := context.Background()

	cake, err := catalog.Save(ctx, 0, models.RewardRequest{
		Name:           models.LocalizedText{"en": "Basbousa", "ar": "بسبوسة"},
		PointsRequired: 25,
	})
	require.NoError(t, err)
	_, err = loyalty.EarnPoints(ctx, "u-1", 40, PurchaseCafe, "")
	require.NoError(t, err)

	resp, err := loyalty.RedeemReward(ctx, "u-1", cake.ID, "ar")
	require.NoError(t, err)
	assert.Equal(t, int64(-25), resp.Transaction.Points)
	assert.Equal(t, "بسبوسة", resp.Transaction.Description)
	assert.Equal(t, models.BalanceResponse{Total: 40, Available: 15, Redeemed: 25}, resp.Balance)

	_, err = loyalty.RedeemReward(ctx, "u-1", cake.ID, "en")
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	off := false
	_, err = catalog.Save(ctx, cake.ID, models.RewardRequest{Name: models.LocalizedText{"en": "Basbousa"}, PointsRequired: 5, Active: &off})
	require.NoError(t, err)
	_, err = loyalty.RedeemReward(ctx, "u-1", cake.ID, "en")
	assert.ErrorIs(t, err, apperr.ErrRewardUnavailable)

	_, err = loyalty.RedeemReward(ctx, "u-1", snowflake.ID(99), "en")
	assert.ErrorIs(t, err, apperr.ErrRewardUnavailable)

	balance, err := loyalty.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance.Available)
}
