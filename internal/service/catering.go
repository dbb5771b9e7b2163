package service

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/events"
	"github.com/Ayman482/nile-dose-cafe-website/internal/metrics"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"

	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxQuantity bounds a single order line after repeated items are merged.
	MaxQuantity = 1000
)

var (
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	// MaxPrice fits the numeric(10,2) price columns.
	MaxPrice = decimal.RequireFromString("99999999.99")
)

type CateringService struct {
	storage   Storage
	loyalty   *LoyaltyService
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewCateringService(storage Storage, loyalty *LoyaltyService, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *CateringService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CateringService{
		storage:   storage,
		loyalty:   loyalty,
		publisher: publisher,
		metrics:   m,
		log:       log.Named("catering.service"),
	}
}

// GetMenu returns the active menu, optionally narrowed to one category.
func (s *CateringService) GetMenu(ctx context.Context, category string) ([]models.MenuItemResponse, error) {
	return s.listMenu(ctx, true, strings.TrimSpace(category))
}

func (s *CateringService) ListMenuItems(ctx context.Context) ([]models.MenuItemResponse, error) {
	return s.listMenu(ctx, false, "")
}

func (s *CateringService) listMenu(ctx context.Context, activeOnly bool, category string) ([]models.MenuItemResponse, error) {
	items, err := s.storage.ListMenuItems(ctx, activeOnly, category)
	if err != nil {
		return nil, apperr.Storage("list menu", err)
	}
	resp := make([]models.MenuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	return resp, nil
}

func (s *CateringService) SaveMenuItem(ctx context.Context, id snowflake.ID, req models.MenuItemRequest) (models.MenuItemResponse, error) {
	name := trimText(req.Name)
	if name[models.DefaultLocale] == "" {
		return models.MenuItemResponse{}, apperr.Validation("menu item name in English is required")
	}
	if req.Price.IsNegative() {
		return models.MenuItemResponse{}, apperr.Validation("price must not be negative")
	}
	if req.Price.GreaterThan(MaxPrice) {
		return models.MenuItemResponse{}, apperr.Validation("price must not exceed %s", MaxPrice.StringFixed(2))
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return models.MenuItemResponse{}, apperr.Validation("category is required")
	}
	if req.Serves < 0 {
		return models.MenuItemResponse{}, apperr.Validation("serves must not be negative")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	item := dbconnector.CateringMenuItem{
		ID:          id,
		Slug:        slug.Make(name[models.DefaultLocale]),
		Name:        datatypes.NewJSONType(name),
		Description: datatypes.NewJSONType(trimText(req.Description)),
		Price:       req.Price.Round(2),
		Category:    category,
		Serves:      req.Serves,
		Active:      active,
	}

	var err error
	if id == 0 {
		err = s.storage.CreateMenuItem(ctx, &item)
	} else {
		err = s.storage.UpdateMenuItem(ctx, &item)
	}
	if err != nil {
		return models.MenuItemResponse{}, apperr.Storage("save menu item", err)
	}
	s.log.Info("menu item saved", zap.String("item_id", item.ID.String()), zap.String("slug", item.Slug))
	return toMenuItemResponse(item), nil
}

func (s *CateringService) DeleteMenuItem(ctx context.Context, id snowflake.ID) error {
	if err := s.storage.DeleteMenuItem(ctx, id); err != nil {
		return apperr.Storage("delete menu item", err)
	}
	s.log.Info("menu item deleted", zap.String("item_id", id.String()))
	return nil
}

// SubmitOrder stores the order and, for signed-in customers, credits
// catering points. A loyalty failure does not undo the stored order.
func (s *CateringService) SubmitOrder(ctx context.Context, userID string, req models.CateringOrderRequest) (models.CateringOrderResponse, error) {
	lines, err := validateOrder(req)
	if err != nil {
		return models.CateringOrderResponse{}, err
	}

	order := dbconnector.CateringOrder{
		CustomerName:        strings.TrimSpace(req.CustomerName),
		Email:               strings.TrimSpace(req.Email),
		Phone:               strings.TrimSpace(req.Phone),
		DeliveryMethod:      req.DeliveryMethod,
		DeliveryAddress:     strings.TrimSpace(req.DeliveryAddress),
		DeliveryDate:        req.DeliveryDate,
		DeliveryTime:        req.DeliveryTime,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
	}
	if userID != "" {
		order.UserID = &userID
	}

	if err := s.storage.CreateCateringOrder(ctx, &order, lines); err != nil {
		s.log.Error("catering order failed", zap.String("email", order.Email), zap.Error(err))
		return models.CateringOrderResponse{}, apperr.Storage("submit catering order", err)
	}
	s.metrics.RecordOrder(order.Status)
	s.log.Info("catering order submitted",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	if userID != "" {
		order.PointsEarned = s.creditOrder(ctx, order)
	}
	s.publishOrder(ctx, order)
	return toOrderResponse(order), nil
}

func (s *CateringService) creditOrder(ctx context.Context, order dbconnector.CateringOrder) int64 {
	points, err := ComputePoints(order.TotalAmount, PurchaseCatering)
	if err != nil || points <= 0 {
		return 0
	}
	description := fmt.Sprintf("Catering order #%s", order.ID)
	if _, err := s.loyalty.EarnPoints(ctx, *order.UserID, points, PurchaseCatering, description); err != nil {
		s.log.Error("catering points not credited",
			zap.String("order_id", order.ID.String()),
			zap.Int64("points", points),
			zap.Error(err),
		)
		return 0
	}
	if err := s.storage.SetOrderPoints(ctx, order.ID, points); err != nil {
		s.log.Warn("failed to record points on order", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	return points
}

func (s *CateringService) ListUserOrders(ctx context.Context, userID string) ([]models.CateringOrderResponse, error) {
	orders, err := s.storage.ListCateringOrdersByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list catering orders", err)
	}
	resp := make([]models.CateringOrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}
	return resp, nil
}

// GetOrder hides orders of other customers behind ErrNotFound.
func (s *CateringService) GetOrder(ctx context.Context, orderID snowflake.ID, userID string) (models.CateringOrderResponse, error) {
	order, err := s.storage.GetCateringOrder(ctx, orderID)
	if err != nil {
		return models.CateringOrderResponse{}, apperr.Storage("get catering order", err)
	}
	if order.UserID == nil || *order.UserID != userID {
		return models.CateringOrderResponse{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}
	return toOrderResponse(order), nil
}

func (s *CateringService) CancelOrder(ctx context.Context, orderID snowflake.ID, userID string) (models.CateringOrderResponse, error) {
	order, err := s.storage.CancelCateringOrder(ctx, orderID, userID)
	if err != nil {
		return models.CateringOrderResponse{}, apperr.Storage("cancel catering order", err)
	}
	s.metrics.RecordOrder(order.Status)
	s.log.Info("catering order cancelled", zap.String("order_id", order.ID.String()))
	s.publishOrder(ctx, order)
	return toOrderResponse(order), nil
}

func (s *CateringService) ListAllOrders(ctx context.Context, page, pageSize int, status string) (models.OrdersPage, error) {
	if status != "" && !slices.Contains(dbconnector.OrderStatuses, status) {
		return models.OrdersPage{}, apperr.Validation("unknown order status %q", status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	orders, total, err := s.storage.ListCateringOrders(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return models.OrdersPage{}, apperr.Storage("list catering orders", err)
	}

	resp := models.OrdersPage{
		Orders: make([]models.CateringOrderResponse, len(orders)),
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	for i, order := range orders {
		resp.Orders[i] = toOrderResponse(order)
	}
	return resp, nil
}

func (s *CateringService) UpdateOrderStatus(ctx context.Context, orderID snowflake.ID, status string) (models.CateringOrderResponse, error) {
	if !slices.Contains(dbconnector.OrderStatuses, status) {
		return models.CateringOrderResponse{}, apperr.Validation("unknown order status %q", status)
	}
	order, err := s.storage.UpdateCateringOrderStatus(ctx, orderID, status)
	if err != nil {
		return models.CateringOrderResponse{}, apperr.Storage("update order status", err)
	}
	s.metrics.RecordOrder(order.Status)
	s.log.Info("catering order status changed", zap.String("order_id", order.ID.String()), zap.String("status", status))
	s.publishOrder(ctx, order)
	return toOrderResponse(order), nil
}

func (s *CateringService) publishOrder(ctx context.Context, order dbconnector.CateringOrder) {
	event := events.OrderEvent{
		OrderID:     strconv.FormatInt(order.ID.Int64(), 10),
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
		OccurredAt:  order.UpdatedAt,
	}
	if order.UserID != nil {
		event.UserID = *order.UserID
	}

	publish := s.publisher.PublishOrderStatusChanged
	if order.Status == dbconnector.OrderStatusPending {
		publish = s.publisher.PublishOrderSubmitted
	}
	if err := publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn("failed to publish order event", zap.String("order_id", event.OrderID), zap.Error(err))
	}
}

func validateOrder(req models.CateringOrderRequest) ([]dbconnector.OrderLine, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, apperr.Validation("customer name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return nil, apperr.Validation("a valid email is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, apperr.Validation("phone is required")
	}
	switch req.DeliveryMethod {
	case DeliveryPickup:
	case DeliveryDelivery:
		if strings.TrimSpace(req.DeliveryAddress) == "" {
			return nil, apperr.Validation("delivery address is required for delivery")
		}
	default:
		return nil, apperr.Validation("delivery method must be %q or %q", DeliveryPickup, DeliveryDelivery)
	}
	if _, err := time.Parse(time.DateOnly, req.DeliveryDate); err != nil {
		return nil, apperr.Validation("delivery date must be a valid YYYY-MM-DD date")
	}
	if !timePattern.MatchString(req.DeliveryTime) {
		return nil, apperr.Validation("delivery time must be HH:MM")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}

	// repeated items are merged into one line
	quantities := make(map[snowflake.ID]int, len(req.Items))
	var order []snowflake.ID
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive")
		}
		if item.Quantity > MaxQuantity || quantities[item.ItemID] > MaxQuantity-item.Quantity {
			return nil, apperr.Validation("quantity of item %s must not exceed %d", item.ItemID, MaxQuantity)
		}
		if _, seen := quantities[item.ItemID]; !seen {
			order = append(order, item.ItemID)
		}
		quantities[item.ItemID] += item.Quantity
	}
	lines := make([]dbconnector.OrderLine, 0, len(order))
	for _, id := range order {
		lines = append(lines, dbconnector.OrderLine{ItemID: id, Quantity: quantities[id]})
	}
	return lines, nil
}
