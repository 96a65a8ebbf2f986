package handlers

import (
	"net/http"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/services"
)

const deliveryNote = "Точную стоимость и сроки уточнит менеджер при звонке"

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req entities.ContactRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	id, err := h.ls.CreateContact(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
		"message": "Ваша заявка принята! Мы свяжемся с вами в ближайшее время.",
	})
}

type deliveryResponse struct {
	entities.DeliveryQuote
	Note string `json:"note"`
}

func (h *Handler) CalculateDelivery(w http.ResponseWriter, r *http.Request) {
	var req entities.DeliveryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	quote, err := h.ls.CalculateDelivery(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Расчет доставки выполнен",
		"data":    deliveryResponse{DeliveryQuote: quote, Note: deliveryNote},
	})
}

type leadPagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func leadQuery(w http.ResponseWriter, r *http.Request) (status string, limit, offset int, ok bool) {
	if limit, ok = queryInt(r, "limit", services.DefaultLeadLimit); !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	if offset, ok = queryInt(r, "offset", 0); !ok {
		writeError(w, http.StatusBadRequest, "Invalid offset parameter")
		return
	}
	status = r.URL.Query().Get("status")
	return
}

func (h *Handler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	status, limit, offset, ok := leadQuery(w, r)
	if !ok {
		return
	}
	page, err := h.ls.SearchContacts(r.Context(), status, limit, offset)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       page.Data,
		"pagination": leadPagination{Total: page.Total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (h *Handler) SearchDeliveryRequests(w http.ResponseWriter, r *http.Request) {
	status, limit, offset, ok := leadQuery(w, r)
	if !ok {
		return
	}
	page, err := h.ls.SearchDeliveryRequests(r.Context(), status, limit, offset)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       page.Data,
		"pagination": leadPagination{Total: page.Total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
