package bitrix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/validation"
)

// Text is a scalar field that Bitrix may send as a string, a number or a
// boolean. Numbers keep their literal form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '{', '[':
		return fmt.Errorf("expected a scalar value, got %s", data[:1])
	default:
		*t = Text(data)
	}
	return nil
}

// Product is one catalog entry as exported by Bitrix. Some exports use lower
// case keys for the common fields, both spellings are accepted.
type Product struct {
	Id             Text            `json:"ID"`
	Name           Text            `json:"NAME"`
	NameAlt        Text            `json:"name"`
	Code           Text            `json:"CODE"`
	DetailText     Text            `json:"DETAIL_TEXT"`
	Description    Text            `json:"description"`
	Price          Text            `json:"PRICE"`
	PriceAlt       Text            `json:"price"`
	CatalogPrice1  Text            `json:"CATALOG_PRICE_1"`
	OldPrice       Text            `json:"OLD_PRICE"`
	SectionId      Text            `json:"SECTION_ID"`
	SectionName    Text            `json:"SECTION_NAME"`
	Category       Text            `json:"category"`
	PreviewPicture Text            `json:"PREVIEW_PICTURE"`
	DetailPicture  Text            `json:"DETAIL_PICTURE"`
	Manufacturer   Text            `json:"MANUFACTURER"`
	Model          Text            `json:"MODEL"`
	Available      Text            `json:"AVAILABLE"`
	Properties     json.RawMessage `json:"PROPERTIES"`
}

func first(values ...Text) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// DisplayName is the name used in import error reports.
func (p Product) DisplayName() string {
	return first(p.Name, p.NameAlt)
}

// ToRequest maps the Bitrix field names onto the generic import item. The
// symbolic code, when present, becomes the slug after normalisation.
func (p Product) ToRequest() (entities.ProductRequest, error) {
	inStock := !strings.EqualFold(string(p.Available), "N")
	featured := false

	req := entities.ProductRequest{
		Name:         first(p.Name, p.NameAlt),
		Description:  first(p.DetailText, p.Description),
		Category:     first(p.SectionName, p.Category),
		Manufacturer: string(p.Manufacturer),
		Model:        first(p.Model, p.Code),
		ImageUrl:     first(p.PreviewPicture, p.DetailPicture),
		InStock:      &inStock,
		Featured:     &featured,
	}
	if p.Code != "" {
		req.Slug = validation.DeriveSlug(string(p.Code))
	}
	if len(p.Properties) > 0 && string(p.Properties) != "null" {
		req.Specifications = p.Properties
	}

	if s := first(p.Price, p.PriceAlt, p.CatalogPrice1); s != "" {
		price, err := decimal.NewFromString(s)
		if err != nil {
			return req, fmt.Errorf("invalid price %q", s)
		}
		req.Price = &price
	}
	if p.OldPrice != "" {
		oldPrice, err := decimal.NewFromString(string(p.OldPrice))
		if err != nil {
			return req, fmt.Errorf("invalid old price %q", p.OldPrice)
		}
		req.OldPrice = &oldPrice
	}
	return req, nil
}
