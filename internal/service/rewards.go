package service

import (
	"context"
	"strings"

	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type RewardCatalog struct {
	storage Storage
	log     *zap.Logger
}

func NewRewardCatalog(storage Storage, log *zap.Logger) *RewardCatalog {
	return &RewardCatalog{storage: storage, log: log.Named("reward.catalog")}
}

// ListActive returns what customers may redeem, cheapest first.
func (c *RewardCatalog) ListActive(ctx context.Context) ([]models.RewardResponse, error) {
	return c.list(ctx, true)
}

func (c *RewardCatalog) ListAll(ctx context.Context) ([]models.RewardResponse, error) {
	return c.list(ctx, false)
}

func (c *RewardCatalog) list(ctx context.Context, activeOnly bool) ([]models.RewardResponse, error) {
	rewards, err := c.storage.ListRewards(ctx, activeOnly)
	if err != nil {
		return nil, apperr.Storage("list rewards", err)
	}
	resp := make([]models.RewardResponse, len(rewards))
	for i, r := range rewards {
		resp[i] = toRewardResponse(r)
	}
	return resp, nil
}

// Save creates the reward when id is zero and updates it otherwise.
func (c *RewardCatalog) Save(ctx context.Context, id snowflake.ID, req models.RewardRequest) (models.RewardResponse, error) {
	name := trimText(req.Name)
	if err := validateReward(name, req.PointsRequired); err != nil {
		return models.RewardResponse{}, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	reward := dbconnector.Reward{
		ID:             id,
		Name:           datatypes.NewJSONType(name),
		Description:    datatypes.NewJSONType(trimText(req.Description)),
		PointsRequired: req.PointsRequired,
		Active:         active,
	}

	var err error
	if id == 0 {
		err = c.storage.CreateReward(ctx, &reward)
	} else {
		err = c.storage.UpdateReward(ctx, &reward)
	}
	if err != nil {
		return models.RewardResponse{}, apperr.Storage("save reward", err)
	}

	c.log.Info("reward saved", zap.String("reward_id", reward.ID.String()), zap.Bool("active", reward.Active))
	return toRewardResponse(reward), nil
}

func (c *RewardCatalog) Delete(ctx context.Context, id snowflake.ID) error {
	if err := c.storage.DeleteReward(ctx, id); err != nil {
		return apperr.Storage("delete reward", err)
	}
	c.log.Info("reward deleted", zap.String("reward_id", id.String()))
	return nil
}

func validateReward(name models.LocalizedText, pointsRequired int64) error {
	if name[models.DefaultLocale] == "" {
		return apperr.Validation("reward name in English is required")
	}
	if pointsRequired <= 0 {
		return apperr.Validation("points required must be positive")
	}
	return nil
}

func trimText(text models.LocalizedText) models.LocalizedText {
	out := make(models.LocalizedText, len(text))
	for locale, v := range text {
		if v = strings.TrimSpace(v); v != "" {
			out[strings.ToLower(locale)] = v
		}
	}
	return out
}
