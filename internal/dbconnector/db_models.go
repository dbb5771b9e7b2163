package dbconnector

import (
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	TransactionTypeEarn   = "earn"
	TransactionTypeRedeem = "redeem"

	SourceReward = "reward"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex:idx_users_email;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     string
	Phone        string
	Role         string `gorm:"size:16;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoyaltyAccount caches the sums of a user's transactions.
type LoyaltyAccount struct {
	UserID         string `gorm:"primaryKey;size:36"`
	TotalPoints    int64  `gorm:"not null;default:0"`
	RedeemedPoints int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (LoyaltyAccount) TableName() string {
	return "loyalty_points"
}

func (a LoyaltyAccount) Available() int64 {
	return a.TotalPoints - a.RedeemedPoints
}

type LoyaltyTransaction struct {
	ID          snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	UserID      string       `gorm:"size:36;not null;index:idx_loyalty_transactions_user_created,priority:1"`
	Points      int64        `gorm:"not null"`
	Type        string       `gorm:"size:16;not null"`
	Source      string       `gorm:"size:32;not null"`
	Description string
	CreatedAt   time.Time `gorm:"not null;index:idx_loyalty_transactions_user_created,priority:2"`
}

type Reward struct {
	ID             snowflake.ID                             `gorm:"primaryKey;autoIncrement:false"`
	Name           datatypes.JSONType[models.LocalizedText] `gorm:"not null"`
	Description    datatypes.JSONType[models.LocalizedText]
	PointsRequired int64 `gorm:"not null"`
	Active         bool  `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Reward) TableName() string {
	return "loyalty_rewards"
}

type CateringMenuItem struct {
	ID          snowflake.ID                             `gorm:"primaryKey;autoIncrement:false"`
	Slug        string                                   `gorm:"index;not null"`
	Name        datatypes.JSONType[models.LocalizedText] `gorm:"not null"`
	Description datatypes.JSONType[models.LocalizedText]
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Category    string          `gorm:"index;not null"`
	Serves      int             `gorm:"not null"`
	Active      bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CateringMenuItem) TableName() string {
	return "catering_menu"
}

type CateringOrder struct {
	ID                  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	UserID              *string      `gorm:"size:36;index"`
	CustomerName        string       `gorm:"not null"`
	Email               string       `gorm:"not null"`
	Phone               string       `gorm:"not null"`
	DeliveryMethod      string       `gorm:"size:16;not null"`
	DeliveryAddress     string
	DeliveryDate        string `gorm:"size:10;not null"`
	DeliveryTime        string `gorm:"size:5;not null"`
	SpecialInstructions string
	TotalAmount         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status              string          `gorm:"size:16;not null;index"`
	PointsEarned        int64           `gorm:"not null;default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Items               []CateringOrderItem `gorm:"foreignKey:OrderID"`
}

func (CateringOrder) TableName() string {
	return "catering_orders"
}

type CateringOrderItem struct {
	ID       snowflake.ID    `gorm:"primaryKey;autoIncrement:false"`
	OrderID  snowflake.ID    `gorm:"index;not null"`
	ItemID   snowflake.ID    `gorm:"not null"`
	ItemName string          `gorm:"not null"`
	Quantity int             `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Subtotal decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (CateringOrderItem) TableName() string {
	return "catering_order_items"
}

// OrderLine is a requested menu item and quantity before prices are resolved.
type OrderLine struct {
	ItemID   snowflake.ID
	Quantity int
}

type LoyaltyTotals struct {
	Accounts int64
	Total    int64
	Redeemed int64
}
