package server

import (
	"net/http"

	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
)

func (ls *ServerSystem) GetMenuHandler(w http.ResponseWriter, r *http.Request) {
	menu, err := ls.Catering.GetMenu(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, menu)
}

// SubmitOrderHandler accepts guest orders; signed-in customers also earn points.
func (ls *ServerSystem) SubmitOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CateringOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	id, _ := identityFrom(r.Context())
	order, err := ls.Catering.SubmitOrder(r.Context(), id.UserID, req)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusCreated, order)
}

func (ls *ServerSystem) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	orders, err := ls.Catering.ListUserOrders(r.Context(), id.UserID)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, orders)
}

func (ls *ServerSystem) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	orderID, err := pathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	order, err := ls.Catering.GetOrder(r.Context(), orderID, id.UserID)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, order)
}

func (ls *ServerSystem) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	orderID, err := pathID(r)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	order, err := ls.Catering.CancelOrder(r.Context(), orderID, id.UserID)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, order)
}
