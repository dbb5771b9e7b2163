package dbconnector

import (
	"context"
	"errors"
	"fmt"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

func (dbConnector *DBConnector) ListRewards(ctx context.Context, activeOnly bool) ([]Reward, error) {
	query := dbConnector.DB.WithContext(ctx)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rewards []Reward
	err := query.Order("points_required ASC").Order("id ASC").Find(&rewards).Error
	return rewards, err
}

func (dbConnector *DBConnector) GetReward(ctx context.Context, id snowflake.ID) (Reward, error) {
	var reward Reward
	err := dbConnector.DB.WithContext(ctx).First(&reward, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Reward{}, fmt.Errorf("%w: reward %s", apperr.ErrNotFound, id)
	}
	return reward, err
}

func (dbConnector *DBConnector) CreateReward(ctx context.Context, reward *Reward) error {
	now := dbConnector.clock.Now()
	reward.ID = dbConnector.node.Generate()
	reward.CreatedAt = now
	reward.UpdatedAt = now
	return dbConnector.DB.WithContext(ctx).Create(reward).Error
}

func (dbConnector *DBConnector) UpdateReward(ctx context.Context, reward *Reward) error {
	reward.UpdatedAt = dbConnector.clock.Now()
	result := dbConnector.DB.WithContext(ctx).
		Model(&Reward{}).
		Where("id = ?", reward.ID).
		Updates(map[string]any{
			"name":            reward.Name,
			"description":     reward.Description,
			"points_required": reward.PointsRequired,
			"active":          reward.Active,
			"updated_at":      reward.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: reward %s", apperr.ErrNotFound, reward.ID)
	}
	updated, err := dbConnector.GetReward(ctx, reward.ID)
	if err != nil {
		return err
	}
	*reward = updated
	return nil
}

func (dbConnector *DBConnector) DeleteReward(ctx context.Context, id snowflake.ID) error {
	result := dbConnector.DB.WithContext(ctx).Delete(&Reward{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: reward %s", apperr.ErrNotFound, id)
	}
	return nil
}
