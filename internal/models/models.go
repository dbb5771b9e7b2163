package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const DefaultLocale = "en"

// LocalizedText holds one value per locale, e.g. {"en": "Latte", "ar": "لاتيه"}.
type LocalizedText map[string]string

// Get returns the text for locale, falling back to English and then to any
// non-empty value.
func (t LocalizedText) Get(locale string) string {
	if v := t[locale]; v != "" {
		return v
	}
	if v := t[DefaultLocale]; v != "" {
		return v
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// Result is the uniform shape every API operation answers with.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(data any) Result {
	return Result{Success: true, Data: data}
}

func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest updates only the fields that are present.
type ProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type BalanceResponse struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Redeemed  int64 `json:"redeemed"`
}

type TransactionResponse struct {
	ID          snowflake.ID `json:"id"`
	UserID      string       `json:"userId,omitempty"`
	Points      int64        `json:"points"`
	Type        string       `json:"type"`
	Source      string       `json:"source"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type HistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

type RedeemRequest struct {
	Points int64  `json:"points"`
	Reward string `json:"reward"`
}

type RedeemResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     BalanceResponse     `json:"balance"`
}

type PointsEstimate struct {
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	Points int64           `json:"points"`
}

type AdjustRequest struct {
	UserID      string `json:"userId"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

type RewardRequest struct {
	Name           LocalizedText `json:"name"`
	Description    LocalizedText `json:"description"`
	PointsRequired int64         `json:"pointsRequired"`
	Active         *bool         `json:"active"`
}

type RewardResponse struct {
	ID             snowflake.ID  `json:"id"`
	Name           LocalizedText `json:"name"`
	Description    LocalizedText `json:"description"`
	PointsRequired int64         `json:"pointsRequired"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type MenuItemRequest struct {
	Name        LocalizedText   `json:"name"`
	Description LocalizedText   `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Serves      int             `json:"serves"`
	Active      *bool           `json:"active"`
}

type MenuItemResponse struct {
	ID          snowflake.ID    `json:"id"`
	Slug        string          `json:"slug"`
	Name        LocalizedText   `json:"name"`
	Description LocalizedText   `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Serves      int             `json:"serves"`
	Active      bool            `json:"active"`
}

type CateringOrderItemRequest struct {
	ItemID   snowflake.ID `json:"itemId"`
	Quantity int          `json:"quantity"`
}

type CateringOrderRequest struct {
	CustomerName        string                     `json:"customerName"`
	Email               string                     `json:"email"`
	Phone               string                     `json:"phone"`
	DeliveryMethod      string                     `json:"deliveryMethod"`
	DeliveryAddress     string                     `json:"deliveryAddress"`
	DeliveryDate        string                     `json:"deliveryDate"`
	DeliveryTime        string                     `json:"deliveryTime"`
	SpecialInstructions string                     `json:"specialInstructions"`
	Items               []CateringOrderItemRequest `json:"items"`
}

type CateringOrderItemResponse struct {
	ItemID   snowflake.ID    `json:"itemId"`
	ItemName string          `json:"itemName"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CateringOrderResponse struct {
	ID                  snowflake.ID                `json:"id"`
	UserID              string                      `json:"userId,omitempty"`
	CustomerName        string                      `json:"customerName"`
	Email               string                      `json:"email"`
	Phone               string                      `json:"phone"`
	DeliveryMethod      string                      `json:"deliveryMethod"`
	DeliveryAddress     string                      `json:"deliveryAddress,omitempty"`
	DeliveryDate        string                      `json:"deliveryDate"`
	DeliveryTime        string                      `json:"deliveryTime"`
	SpecialInstructions string                      `json:"specialInstructions,omitempty"`
	TotalAmount         decimal.Decimal             `json:"totalAmount"`
	Status              string                      `json:"status"`
	PointsEarned        int64                       `json:"pointsEarned"`
	CreatedAt           time.Time                   `json:"createdAt"`
	UpdatedAt           time.Time                   `json:"updatedAt"`
	Items               []CateringOrderItemResponse `json:"items"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type OrdersPage struct {
	Orders     []CateringOrderResponse `json:"orders"`
	Pagination Pagination              `json:"pagination"`
}

type LoyaltyStats struct {
	TotalUsers         int64                 `json:"totalUsers"`
	TotalPoints        int64                 `json:"totalPoints"`
	RedeemedPoints     int64                 `json:"redeemedPoints"`
	AvailablePoints    int64                 `json:"availablePoints"`
	RecentTransactions []TransactionResponse `json:"recentTransactions"`
}
