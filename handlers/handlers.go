package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/services"
)

// DefaultMaxBodyBytes caps JSON request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 10 << 20

type Handler struct {
	maxBody int64

	us  services.UserService
	ps  services.ProductService
	cas services.CategoryService
	ors services.OrderService
	is  services.ImportService
	ls  services.LeadService
}

type HandlerParams struct {
	UsrService  services.UserService
	PrdService  services.ProductService
	CatsService services.CategoryService
	OrdService  services.OrderService
	ImpService  services.ImportService
	LeadService services.LeadService

	// MaxBodyBytes caps JSON request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

func NewHandler(params HandlerParams) *Handler {
	maxBody := params.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{
		maxBody: maxBody,

		us:  params.UsrService,
		ps:  params.PrdService,
		cas: params.CatsService,
		ors: params.OrdService,
		is:  params.ImpService,
		ls:  params.LeadService,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("request body too large", "path", r.URL.Path, "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		slog.Info("Unmarshal", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func pathId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

// queryInt returns def for an absent parameter and reports false for one that
// is not an integer.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func WriteErrorResponse(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	var ce *models.ConflictError
	var ue *models.UpstreamError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Message)
	case errors.Is(err, models.ErrCustomerWrite):
		writeError(w, http.StatusInternalServerError, "Failed to create customer")
	case errors.Is(err, models.ErrOrderWrite):
		writeError(w, http.StatusInternalServerError, "Failed to create order")
	case errors.Is(err, models.ErrItemWrite):
		writeError(w, http.StatusInternalServerError, "Failed to create order items")
	case errors.As(err, &ue):
		writeError(w, http.StatusInternalServerError, "Failed to fetch products from Bitrix: "+ue.Err.Error())
	case errors.Is(err, models.ErrServerError):
		writeError(w, http.StatusInternalServerError, "Internal server error")
	case errors.Is(err, models.ErrUnautorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, models.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Bad request")
	case errors.Is(err, models.ErrNotFoundError):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrNotAllowed):
		writeError(w, http.StatusNotAcceptable, err.Error())
	case errors.Is(err, models.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict")
	case errors.Is(err, models.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, "Too Many Requests")
	default:
		slog.Error("unmapped error", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
