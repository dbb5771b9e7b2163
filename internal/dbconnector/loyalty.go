package dbconnector

import (
	"context"
	"errors"
	"fmt"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EarnPoints creates the account on first use, increments total_points and
// appends the earn entry in one transaction.
func (dbConnector *DBConnector) EarnPoints(ctx context.Context, userID string, points int64, source, description string) (LoyaltyTransaction, error) {
	now := dbConnector.clock.Now()
	entry := LoyaltyTransaction{
		ID:          dbConnector.node.Generate(),
		UserID:      userID,
		Points:      points,
		Type:        TransactionTypeEarn,
		Source:      source,
		Description: description,
		CreatedAt:   now,
	}

	err := dbConnector.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account := LoyaltyAccount{
			UserID:      userID,
			TotalPoints: points,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "total_points"}, Value: gorm.Expr("loyalty_points.total_points + ?", points)},
				{Column: clause.Column{Name: "updated_at"}, Value: now},
			},
		}).Create(&account)
		if result.Error != nil {
			return result.Error
		}

		return tx.Create(&entry).Error
	})
	if err != nil {
		return LoyaltyTransaction{}, err
	}
	return entry, nil
}

// RedeemPoints moves points from available to redeemed only if the balance
// covers them. The check and the increment are one UPDATE statement, so
// concurrent redemptions serialize on the account row.
func (dbConnector *DBConnector) RedeemPoints(ctx context.Context, userID string, points int64, label string) (LoyaltyTransaction, error) {
	var entry LoyaltyTransaction
	err := dbConnector.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = dbConnector.redeem(tx, userID, points, label)
		return err
	})
	if err != nil {
		return LoyaltyTransaction{}, err
	}
	return entry, nil
}

// RedeemReward re-reads the reward inside the redemption transaction so a
// reward deactivated after it was displayed is refused.
func (dbConnector *DBConnector) RedeemReward(ctx context.Context, userID string, rewardID snowflake.ID, label func(Reward) string) (Reward, LoyaltyTransaction, error) {
	var (
		reward Reward
		entry  LoyaltyTransaction
	)
	err := dbConnector.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if dbConnector.isPostgres() {
			query = query.Clauses(clause.Locking{Strength: "SHARE"})
		}
		if err := query.First(&reward, "id = ?", rewardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: reward %s does not exist", apperr.ErrRewardUnavailable, rewardID)
			}
			return err
		}
		if !reward.Active {
			return fmt.Errorf("%w: reward %s is not active", apperr.ErrRewardUnavailable, rewardID)
		}

		var err error
		entry, err = dbConnector.redeem(tx, userID, reward.PointsRequired, label(reward))
		return err
	})
	if err != nil {
		return Reward{}, LoyaltyTransaction{}, err
	}
	return reward, entry, nil
}

func (dbConnector *DBConnector) redeem(tx *gorm.DB, userID string, points int64, label string) (LoyaltyTransaction, error) {
	now := dbConnector.clock.Now()
	result := tx.Model(&LoyaltyAccount{}).
		Where("user_id = ? AND total_points - redeemed_points >= ?", userID, points).
		Updates(map[string]any{
			"redeemed_points": gorm.Expr("redeemed_points + ?", points),
			"updated_at":      now,
		})
	if result.Error != nil {
		return LoyaltyTransaction{}, result.Error
	}
	if result.RowsAffected == 0 {
		// also the case for a user without an account: the implicit balance is zero
		return LoyaltyTransaction{}, fmt.Errorf("%w: %d points requested", apperr.ErrInsufficientBalance, points)
	}

	entry := LoyaltyTransaction{
		ID:          dbConnector.node.Generate(),
		UserID:      userID,
		Points:      -points,
		Type:        TransactionTypeRedeem,
		Source:      SourceReward,
		Description: label,
		CreatedAt:   now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return LoyaltyTransaction{}, err
	}
	return entry, nil
}

// GetAccount reports found=false instead of an error when the user never transacted.
func (dbConnector *DBConnector) GetAccount(ctx context.Context, userID string) (LoyaltyAccount, bool, error) {
	var account LoyaltyAccount
	err := dbConnector.DB.WithContext(ctx).Where("user_id = ?", userID).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoyaltyAccount{UserID: userID}, false, nil
	}
	if err != nil {
		return LoyaltyAccount{}, false, err
	}
	return account, true, nil
}

func (dbConnector *DBConnector) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]LoyaltyTransaction, int64, error) {
	var total int64
	if err := dbConnector.DB.WithContext(ctx).Model(&LoyaltyTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []LoyaltyTransaction
	err := dbConnector.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (dbConnector *DBConnector) RecentTransactions(ctx context.Context, limit int) ([]LoyaltyTransaction, error) {
	var transactions []LoyaltyTransaction
	err := dbConnector.DB.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

func (dbConnector *DBConnector) LoyaltyTotals(ctx context.Context) (LoyaltyTotals, error) {
	var totals LoyaltyTotals
	err := dbConnector.DB.WithContext(ctx).
		Model(&LoyaltyAccount{}).
		Select("COUNT(*) AS accounts, COALESCE(SUM(total_points), 0) AS total, COALESCE(SUM(redeemed_points), 0) AS redeemed").
		Scan(&totals).Error
	return totals, err
}
