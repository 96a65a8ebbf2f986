package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TARS911/dongfeng-minitraktor-sub001/bitrix"
	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
)

// importProductsRequest keeps each record raw so one malformed product is
// reported in the result instead of rejecting the batch.
type importProductsRequest struct {
	Products []json.RawMessage `json:"products"`
}

type importExample struct {
	Products []entities.ProductRequest `json:"products"`
}

// bitrixImportRequest carries either records exported from Bitrix or the
// webhook credentials to pull them from the portal.
type bitrixImportRequest struct {
	Products    []json.RawMessage `json:"products"`
	BitrixURL   string            `json:"bitrix_url"`
	WebhookCode string            `json:"webhook_code"`
	UserId      json.Number       `json:"user_id"`
}

func (h *Handler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var req importProductsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	res, err := h.is.ImportProducts(r.Context(), req.Products)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ImportBitrix(w http.ResponseWriter, r *http.Request) {
	var req bitrixImportRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var res entities.ImportResult
	var err error
	switch {
	case req.Products != nil:
		res, err = h.is.ImportBitrixProducts(r.Context(), req.Products)
	case strings.TrimSpace(req.BitrixURL) != "" && strings.TrimSpace(req.WebhookCode) != "":
		res, err = h.is.ImportFromBitrix(r.Context(), bitrix.FetchParams{
			BaseURL:     req.BitrixURL,
			WebhookCode: req.WebhookCode,
			UserId:      req.UserId.String(),
		})
	default:
		writeError(w, http.StatusBadRequest, "Invalid request. Provide either 'products' array or Bitrix credentials")
		return
	}
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decimalRef(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func boolRef(b bool) *bool { return &b }

type importTemplate struct {
	Description string        `json:"description"`
	Example     importExample `json:"example"`
	Notes       []string      `json:"notes"`
}

func (h *Handler) ImportProductsTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, importTemplate{
		Description: "JSON template for bulk product import",
		Example: importExample{Products: []entities.ProductRequest{{
			Name:         "DONGFENG DF-244",
			Slug:         "dongfeng-df-244",
			Description:  "Компактный мини-трактор 24 л.с.",
			Price:        decimalRef(450000),
			OldPrice:     decimalRef(500000),
			CategorySlug: "mini-tractors",
			Manufacturer: "DONGFENG",
			Model:        "DF-244",
			ImageUrl:     "https://example.com/image.jpg",
			InStock:      boolRef(true),
			Featured:     boolRef(true),
			Specifications: json.RawMessage(
				`{"power":"24 л.с.","engine":"Дизельный","transmission":"Механическая"}`),
		}}},
		Notes: []string{
			fmt.Sprintf("Maximum %d products per request", h.is.MaxBatch()),
			"slug is optional; when omitted it is derived from name (Cyrillic is transliterated)",
			"slug must be unique and URL-friendly (lowercase, numbers, hyphens)",
			"category_slug or category (name) must match an existing category",
			"price is required, old_price is optional",
			"Duplicate slugs will be updated (upsert)",
		},
	})
}

type bitrixStep struct {
	Step        int                `json:"step"`
	Title       string             `json:"title"`
	URL         string             `json:"url,omitempty"`
	Permissions []string           `json:"permissions,omitempty"`
	Example     string             `json:"example,omitempty"`
	Body        *bitrixImportHints `json:"body,omitempty"`
}

type bitrixImportHints struct {
	BitrixURL   string `json:"bitrix_url"`
	WebhookCode string `json:"webhook_code"`
	UserId      string `json:"user_id"`
}

type bitrixInstructions struct {
	Description string            `json:"description"`
	Steps       []bitrixStep      `json:"steps"`
	Alternative map[string]string `json:"alternative_method"`
	Mapping     map[string]string `json:"field_mapping"`
}

func (h *Handler) ImportBitrixInstructions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bitrixInstructions{
		Description: "Интеграция с 1С-Битрикс",
		Steps: []bitrixStep{
			{
				Step:        1,
				Title:       "Создайте Webhook в Битрикс24",
				URL:         "https://ваш-сайт.bitrix24.ru/devops/webhook/",
				Permissions: []string{"catalog"},
			},
			{
				Step:    2,
				Title:   "Скопируйте код webhook",
				Example: "https://ваш-сайт.bitrix24.ru/rest/1/xxxxxxxxxxxxx/",
			},
			{
				Step:  3,
				Title: "Отправьте POST запрос на /api/import/bitrix",
				Body: &bitrixImportHints{
					BitrixURL:   "https://ваш-сайт.bitrix24.ru",
					WebhookCode: "xxxxxxxxxxxxx",
					UserId:      "1",
				},
			},
		},
		Alternative: map[string]string{
			"description": "Или экспортируйте товары из Битрикс в JSON и отправьте в поле products",
			"endpoint":    "/api/import/bitrix",
		},
		Mapping: map[string]string{
			"NAME":            "name",
			"CODE":            "slug",
			"PRICE":           "price",
			"DETAIL_TEXT":     "description",
			"SECTION_NAME":    "category",
			"PREVIEW_PICTURE": "image_url",
		},
	})
}
