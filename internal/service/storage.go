package service

import (
	"context"

	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	"github.com/bwmarrin/snowflake"
)

type Storage interface {
	AddUser(ctx context.Context, newUser *dbconnector.User) error
	GetUserByEmail(ctx context.Context, email string) (dbconnector.User, error)
	GetUserByID(ctx context.Context, userID string) (dbconnector.User, error)
	SetUserRole(ctx context.Context, email, role string) error
	UpdateUser(ctx context.Context, userID string, fields map[string]any) (dbconnector.User, error)

	EarnPoints(ctx context.Context, userID string, points int64, source, description string) (dbconnector.LoyaltyTransaction, error)
	RedeemPoints(ctx context.Context, userID string, points int64, label string) (dbconnector.LoyaltyTransaction, error)
	RedeemReward(ctx context.Context, userID string, rewardID snowflake.ID, label func(dbconnector.Reward) string) (dbconnector.Reward, dbconnector.LoyaltyTransaction, error)
	GetAccount(ctx context.Context, userID string) (dbconnector.LoyaltyAccount, bool, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]dbconnector.LoyaltyTransaction, int64, error)
	RecentTransactions(ctx context.Context, limit int) ([]dbconnector.LoyaltyTransaction, error)
	LoyaltyTotals(ctx context.Context) (dbconnector.LoyaltyTotals, error)

	ListRewards(ctx context.Context, activeOnly bool) ([]dbconnector.Reward, error)
	GetReward(ctx context.Context, id snowflake.ID) (dbconnector.Reward, error)
	CreateReward(ctx context.Context, reward *dbconnector.Reward) error
	UpdateReward(ctx context.Context, reward *dbconnector.Reward) error
	DeleteReward(ctx context.Context, id snowflake.ID) error

	ListMenuItems(ctx context.Context, activeOnly bool, category string) ([]dbconnector.CateringMenuItem, error)
	GetMenuItem(ctx context.Context, id snowflake.ID) (dbconnector.CateringMenuItem, error)
	CreateMenuItem(ctx context.Context, item *dbconnector.CateringMenuItem) error
	UpdateMenuItem(ctx context.Context, item *dbconnector.CateringMenuItem) error
	DeleteMenuItem(ctx context.Context, id snowflake.ID) error

	CreateCateringOrder(ctx context.Context, order *dbconnector.CateringOrder, lines []dbconnector.OrderLine) error
	SetOrderPoints(ctx context.Context, orderID snowflake.ID, points int64) error
	GetCateringOrder(ctx context.Context, id snowflake.ID) (dbconnector.CateringOrder, error)
	ListCateringOrdersByUser(ctx context.Context, userID string) ([]dbconnector.CateringOrder, error)
	ListCateringOrders(ctx context.Context, status string, limit, offset int) ([]dbconnector.CateringOrder, int64, error)
	UpdateCateringOrderStatus(ctx context.Context, id snowflake.ID, status string) (dbconnector.CateringOrder, error)
	CancelCateringOrder(ctx context.Context, id snowflake.ID, userID string) (dbconnector.CateringOrder, error)
}
