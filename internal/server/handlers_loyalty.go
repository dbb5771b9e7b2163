package server

import (
	"net/http"
	"strconv"
	"strings"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/Ayman482/nile-dose-cafe-website/internal/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func (ls *ServerSystem) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	balance, err := ls.Loyalty.GetBalance(r.Context(), id.UserID)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, balance)
}

func (ls *ServerSystem) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	limit, err := queryInt(r, "limit", service.DefaultHistoryLimit)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		ls.fail(w, r, err)
		return
	}

	history, err := ls.Loyalty.GetHistory(r.Context(), id.UserID, limit, offset)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, history)
}

func (ls *ServerSystem) RedeemPointsHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req models.RedeemRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	resp, err := ls.Loyalty.RedeemPoints(r.Context(), id.UserID, req.Points, strings.TrimSpace(req.Reward))
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, resp)
}

func (ls *ServerSystem) RedeemRewardHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	rewardID, err := pathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}

	resp, err := ls.Loyalty.RedeemReward(r.Context(), id.UserID, rewardID, localeFrom(r))
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, resp)
}

func (ls *ServerSystem) ListRewardsHandler(w http.ResponseWriter, r *http.Request) {
	rewards, err := ls.Rewards.ListActive(r.Context())
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, rewards)
}

// CalculatePointsHandler previews what a purchase would earn without touching the ledger.
func (ls *ServerSystem) CalculatePointsHandler(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		ls.fail(w, r, apperr.Validation("amount must be a number"))
		return
	}
	purchaseType := r.URL.Query().Get("type")
	if purchaseType == "" {
		purchaseType = service.PurchaseCafe
	}
	points, err := service.ComputePoints(amount, purchaseType)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, models.PointsEstimate{
		Amount: amount,
		Type:   purchaseType,
		Points: points,
	})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return v, nil
}

func pathID(r *http.Request) (snowflake.ID, error) {
	id, err := snowflake.ParseString(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id %q", mux.Vars(r)["id"])
	}
	return id, nil
}
