package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
)

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req entities.OrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	created, err := h.ors.CreateOrder(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order":   created,
		"message": "Order created successfully",
	})
}

func (h *Handler) GetOrderById(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	order, err := h.ors.GetOrderById(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.ors.GetOrderByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	var customerId *int
	if r.URL.Query().Get("customerId") != "" {
		id, ok := queryInt(r, "customerId", 0)
		if !ok || id < 1 {
			writeError(w, http.StatusBadRequest, "Invalid customer ID")
			return
		}
		customerId = &id
	}
	page, ok := queryInt(r, "page", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "Page must be at least 1")
		return
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter. Must be between 1 and 100.")
		return
	}

	res, err := h.ors.SearchOrders(r.Context(), customerId, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
