package server

import (
	"net/http"
	"strings"

	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/Ayman482/nile-dose-cafe-website/internal/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (ls *ServerSystem) AdminListRewardsHandler(w http.ResponseWriter, r *http.Request) {
	rewards, err := ls.Rewards.ListAll(r.Context())
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, rewards)
}

// AdminSaveRewardHandler creates on POST and updates on PUT /{id}.
func (ls *ServerSystem) AdminSaveRewardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := optionalPathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	var req models.RewardRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	reward, err := ls.Rewards.Save(r.Context(), id, req)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, savedStatus(id), reward)
}

func (ls *ServerSystem) AdminDeleteRewardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	if err := ls.Rewards.Delete(r.Context(), id); err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, nil)
}

func (ls *ServerSystem) AdminListMenuHandler(w http.ResponseWriter, r *http.Request) {
	items, err := ls.Catering.ListMenuItems(r.Context())
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, items)
}

func (ls *ServerSystem) AdminSaveMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := optionalPathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	var req models.MenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	item, err := ls.Catering.SaveMenuItem(r.Context(), id, req)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, savedStatus(id), item)
}

func (ls *ServerSystem) AdminDeleteMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	if err := ls.Catering.DeleteMenuItem(r.Context(), id); err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, nil)
}

func (ls *ServerSystem) AdminListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", service.DefaultPageSize)
	if err != nil {
		ls.fail(w, r, err)
		return
	}

	orders, err := ls.Catering.ListAllOrders(r.Context(), page, pageSize, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, orders)
}

func (ls *ServerSystem) AdminOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	var req models.OrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	order, err := ls.Catering.UpdateOrderStatus(r.Context(), id, strings.TrimSpace(req.Status))
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, order)
}

func (ls *ServerSystem) AdminLoyaltyStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := ls.Loyalty.Stats(r.Context())
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, stats)
}

// AdminAdjustPointsHandler credits points by hand, e.g. for an in-store purchase.
func (ls *ServerSystem) AdminAdjustPointsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}
	if _, err := ls.Users.Me(r.Context(), req.UserID); err != nil {
		ls.fail(w, r, err)
		return
	}

	entry, err := ls.Loyalty.EarnPoints(r.Context(), req.UserID, req.Points, service.SourceAdjustment, strings.TrimSpace(req.Description))
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	admin, _ := identityFrom(r.Context())
	ls.log.Info("points adjusted",
		zap.String("admin_id", admin.UserID),
		zap.String("user_id", req.UserID),
		zap.Int64("points", req.Points),
	)
	ls.respond(w, http.StatusCreated, entry)
}

func optionalPathID(r *http.Request) (snowflake.ID, error) {
	if _, ok := mux.Vars(r)["id"]; !ok {
		return 0, nil
	}
	return pathID(r)
}

func savedStatus(id snowflake.ID) int {
	if id == 0 {
		return http.StatusCreated
	}
	return http.StatusOK
}
