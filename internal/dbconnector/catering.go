package dbconnector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxOrderTotal fits the numeric(12,2) total and subtotal columns.
var maxOrderTotal = decimal.RequireFromString("9999999999.99")

// ListMenuItems returns items ordered by category and English name.
func (dbConnector *DBConnector) ListMenuItems(ctx context.Context, activeOnly bool, category string) ([]CateringMenuItem, error) {
	query := dbConnector.DB.WithContext(ctx)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var items []CateringMenuItem
	if err := query.Order("category ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	// names are JSON documents; sorting here keeps the query portable between postgres and sqlite
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name.Data().Get(models.DefaultLocale) < items[j].Name.Data().Get(models.DefaultLocale)
	})
	return items, nil
}

func (dbConnector *DBConnector) GetMenuItem(ctx context.Context, id snowflake.ID) (CateringMenuItem, error) {
	var item CateringMenuItem
	err := dbConnector.DB.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CateringMenuItem{}, fmt.Errorf("%w: menu item %s", apperr.ErrNotFound, id)
	}
	return item, err
}

func (dbConnector *DBConnector) CreateMenuItem(ctx context.Context, item *CateringMenuItem) error {
	now := dbConnector.clock.Now()
	item.ID = dbConnector.node.Generate()
	item.CreatedAt = now
	item.UpdatedAt = now
	return dbConnector.DB.WithContext(ctx).Create(item).Error
}

func (dbConnector *DBConnector) UpdateMenuItem(ctx context.Context, item *CateringMenuItem) error {
	item.UpdatedAt = dbConnector.clock.Now()
	result := dbConnector.DB.WithContext(ctx).
		Model(&CateringMenuItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"slug":        item.Slug,
			"name":        item.Name,
			"description": item.Description,
			"price":       item.Price,
			"category":    item.Category,
			"serves":      item.Serves,
			"active":      item.Active,
			"updated_at":  item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: menu item %s", apperr.ErrNotFound, item.ID)
	}
	updated, err := dbConnector.GetMenuItem(ctx, item.ID)
	if err != nil {
		return err
	}
	*item = updated
	return nil
}

func (dbConnector *DBConnector) DeleteMenuItem(ctx context.Context, id snowflake.ID) error {
	result := dbConnector.DB.WithContext(ctx).Delete(&CateringMenuItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: menu item %s", apperr.ErrNotFound, id)
	}
	return nil
}

// CreateCateringOrder prices the lines from the current menu and stores the
// order with its items in one transaction. order.Items is filled in.
func (dbConnector *DBConnector) CreateCateringOrder(ctx context.Context, order *CateringOrder, lines []OrderLine) error {
	now := dbConnector.clock.Now()
	return dbConnector.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]snowflake.ID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ItemID)
		}
		var menu []CateringMenuItem
		if err := tx.Where("id IN ? AND active = ?", ids, true).Find(&menu).Error; err != nil {
			return err
		}
		byID := make(map[snowflake.ID]CateringMenuItem, len(menu))
		for _, item := range menu {
			byID[item.ID] = item
		}

		order.ID = dbConnector.node.Generate()
		order.Status = OrderStatusPending
		order.CreatedAt = now
		order.UpdatedAt = now
		order.Items = order.Items[:0]
		total := decimal.Zero
		for _, line := range lines {
			item, ok := byID[line.ItemID]
			if !ok {
				return apperr.Validation("menu item %s is not available", line.ItemID)
			}
			subtotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(subtotal)
			order.Items = append(order.Items, CateringOrderItem{
				ID:       dbConnector.node.Generate(),
				OrderID:  order.ID,
				ItemID:   item.ID,
				ItemName: item.Name.Data().Get(models.DefaultLocale),
				Quantity: line.Quantity,
				Price:    item.Price,
				Subtotal: subtotal,
			})
		}
		if total.GreaterThan(maxOrderTotal) {
			return apperr.Validation("order total must not exceed %s", maxOrderTotal.StringFixed(2))
		}
		order.TotalAmount = total

		return tx.Create(order).Error
	})
}

func (dbConnector *DBConnector) SetOrderPoints(ctx context.Context, orderID snowflake.ID, points int64) error {
	return dbConnector.DB.WithContext(ctx).
		Model(&CateringOrder{}).
		Where("id = ?", orderID).
		Update("points_earned", points).Error
}

func (dbConnector *DBConnector) GetCateringOrder(ctx context.Context, id snowflake.ID) (CateringOrder, error) {
	var order CateringOrder
	err := dbConnector.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CateringOrder{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	return order, err
}

func (dbConnector *DBConnector) ListCateringOrdersByUser(ctx context.Context, userID string) ([]CateringOrder, error) {
	var orders []CateringOrder
	err := dbConnector.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	return orders, err
}

func (dbConnector *DBConnector) ListCateringOrders(ctx context.Context, status string, limit, offset int) ([]CateringOrder, int64, error) {
	filtered := func() *gorm.DB {
		query := dbConnector.DB.WithContext(ctx).Model(&CateringOrder{})
		if status != "" {
			query = query.Where("status = ?", status)
		}
		return query
	}
	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []CateringOrder
	err := filtered().
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (dbConnector *DBConnector) UpdateCateringOrderStatus(ctx context.Context, id snowflake.ID, status string) (CateringOrder, error) {
	result := dbConnector.DB.WithContext(ctx).
		Model(&CateringOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": dbConnector.clock.Now()})
	if result.Error != nil {
		return CateringOrder{}, result.Error
	}
	if result.RowsAffected == 0 {
		return CateringOrder{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	return dbConnector.GetCateringOrder(ctx, id)
}

// CancelCateringOrder lets the owner cancel an order that is still pending.
func (dbConnector *DBConnector) CancelCateringOrder(ctx context.Context, id snowflake.ID, userID string) (CateringOrder, error) {
	err := dbConnector.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order CateringOrder
		err := tx.First(&order, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && (order.UserID == nil || *order.UserID != userID)) {
			return fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return apperr.Validation("only pending orders can be cancelled")
		}

		result := tx.Model(&CateringOrder{}).
			Where("id = ? AND status = ?", id, OrderStatusPending).
			Updates(map[string]any{"status": OrderStatusCancelled, "updated_at": dbConnector.clock.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.Validation("only pending orders can be cancelled")
		}
		return nil
	})
	if err != nil {
		return CateringOrder{}, err
	}
	return dbConnector.GetCateringOrder(ctx, id)
}
