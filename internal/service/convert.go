package service

import (
	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
)

func toTransactionResponse(entry dbconnector.LoyaltyTransaction, withUser bool) models.TransactionResponse {
	resp := models.TransactionResponse{
		ID:          entry.ID,
		Points:      entry.Points,
		Type:        entry.Type,
		Source:      entry.Source,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
	if withUser {
		resp.UserID = entry.UserID
	}
	return resp
}

func toRewardResponse(reward dbconnector.Reward) models.RewardResponse {
	return models.RewardResponse{
		ID:             reward.ID,
		Name:           reward.Name.Data(),
		Description:    reward.Description.Data(),
		PointsRequired: reward.PointsRequired,
		Active:         reward.Active,
		CreatedAt:      reward.CreatedAt,
		UpdatedAt:      reward.UpdatedAt,
	}
}

func toMenuItemResponse(item dbconnector.CateringMenuItem) models.MenuItemResponse {
	return models.MenuItemResponse{
		ID:          item.ID,
		Slug:        item.Slug,
		Name:        item.Name.Data(),
		Description: item.Description.Data(),
		Price:       item.Price,
		Category:    item.Category,
		Serves:      item.Serves,
		Active:      item.Active,
	}
}

func toOrderResponse(order dbconnector.CateringOrder) models.CateringOrderResponse {
	resp := models.CateringOrderResponse{
		ID:                  order.ID,
		CustomerName:        order.CustomerName,
		Email:               order.Email,
		Phone:               order.Phone,
		DeliveryMethod:      order.DeliveryMethod,
		DeliveryAddress:     order.DeliveryAddress,
		DeliveryDate:        order.DeliveryDate,
		DeliveryTime:        order.DeliveryTime,
		SpecialInstructions: order.SpecialInstructions,
		TotalAmount:         order.TotalAmount,
		Status:              order.Status,
		PointsEarned:        order.PointsEarned,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
		Items:               make([]models.CateringOrderItemResponse, len(order.Items)),
	}
	if order.UserID != nil {
		resp.UserID = *order.UserID
	}
	for i, item := range order.Items {
		resp.Items[i] = models.CateringOrderItemResponse{
			ItemID:   item.ItemID,
			ItemName: item.ItemName,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: item.Subtotal,
		}
	}
	return resp
}

func toUserResponse(user dbconnector.User) models.UserResponse {
	return models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
