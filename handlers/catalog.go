package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/services"
)

// products

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter. Must be between 1 and 100.")
		return
	}
	var categoryId *int
	if r.URL.Query().Get("category") != "" {
		id, ok := queryInt(r, "category", 0)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid category ID")
			return
		}
		categoryId = &id
	}

	prods, err := h.ps.ListProducts(r.Context(), categoryId, limit)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": prods})
}

func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", services.DefaultSearchLimit)
	if !ok {
		limit = services.DefaultSearchLimit
	}
	prods, err := h.ps.SearchProducts(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": prods})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	prod, err := h.ps.GetProductBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": prod})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req entities.ProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	prod, err := h.ps.CreateProduct(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"product": prod,
		"message": "Product created successfully",
	})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	var req entities.ProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	prod, err := h.ps.UpdateProduct(r.Context(), id, req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"product": prod,
		"message": "Product updated successfully",
	})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	if err := h.ps.DeleteProduct(r.Context(), id); err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

// categories

func (h *Handler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.cas.GetAllCategories(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	cat, err := h.cas.GetCategoryById(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": cat})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req entities.CategoryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	cat, err := h.cas.CreateCategory(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"category": cat,
		"message":  "Category created successfully",
	})
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	var req entities.CategoryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	cat, err := h.cas.UpdateCategory(r.Context(), id, req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": cat,
		"message":  "Category updated successfully",
	})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	if err := h.cas.DeleteCategory(r.Context(), id); err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Category deleted successfully"})
}
