package services

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/notify"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
	"github.com/TARS911/dongfeng-minitraktor-sub001/validation"
)

const (
	DefaultLeadLimit = 50
	MaxLeadLimit     = 100
)

type tariff struct {
	cost int64
	days string
}

// delivery tariffs by lowercased city name
var deliveryTariffs = map[string]tariff{
	"москва":          {3000, "1-2"},
	"санкт-петербург": {5000, "2-3"},
	"екатеринбург":    {8000, "5-7"},
	"новосибирск":     {10000, "7-10"},
	"казань":          {6000, "3-5"},
	"нижний новгород": {5000, "3-4"},
}

var defaultTariff = tariff{7000, "5-10"}

// DeliveryEstimate returns the flat tariff for a city; unknown cities get the
// default one.
func DeliveryEstimate(city string) (decimal.Decimal, string) {
	t, ok := deliveryTariffs[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		t = defaultTariff
	}
	return decimal.NewFromInt(t.cost), t.days
}

type LeadService struct {
	lr       repository.LeadRepository
	notifier notify.Notifier
}

func NewLeadService(leadRepo repository.LeadRepository, notifier notify.Notifier) LeadService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return LeadService{
		lr:       leadRepo,
		notifier: notifier,
	}
}

func lengthBetween(field, label, s string, lo, hi int) error {
	n := utf8.RuneCountInString(s)
	if n < lo || n > hi {
		return models.NewValidationError(field, label+" must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi)+" characters")
	}
	return nil
}

func (ls *LeadService) CreateContact(ctx context.Context, req entities.ContactRequest) (contactId int, err error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := strings.TrimSpace(req.Email)
	if err = lengthBetween("name", "Name", name, 2, 100); err != nil {
		return
	}
	if err = lengthBetween("phone", "Phone", phone, 10, 20); err != nil {
		return
	}
	if email != "" && !validation.IsEmail(email) {
		err = models.NewValidationError("email", "Invalid email format")
		return
	}
	if utf8.RuneCountInString(req.Message) > validation.MaxTextLen {
		err = models.NewValidationError("message", "Message must be at most 1000 characters")
		return
	}

	contact := models.Contact_db{
		Name:         validation.Sanitize(name),
		Phone:        phone,
		Email:        sql.NullString{String: email, Valid: email != ""},
		Message:      optionalText(req.Message),
		ProductModel: optionalText(req.ProductModel),
		Status:       models.LeadStatusNew,
	}
	contactId, err = ls.lr.CreateContact(ctx, contact)
	if err != nil {
		return
	}
	slog.Info("contact request stored", "contact_id", contactId)

	event := notify.NewEvent(notify.EventContactCreated, "НОВАЯ ЗАЯВКА #"+strconv.Itoa(contactId), map[string]any{
		"id":            contactId,
		"name":          contact.Name,
		"phone":         contact.Phone,
		"email":         contact.Email.String,
		"message":       contact.Message.String,
		"product_model": contact.ProductModel.String,
	}).
		With("Имя", contact.Name).
		With("Телефон", contact.Phone).
		With("Email", contact.Email.String).
		With("Модель", contact.ProductModel.String).
		With("Сообщение", contact.Message.String)
	notifyAsync(ls.notifier, event)
	return
}

// CalculateDelivery stores a delivery request and returns the tariff
// estimate for it.
func (ls *LeadService) CalculateDelivery(ctx context.Context, req entities.DeliveryRequest) (quote entities.DeliveryQuote, err error) {
	city := validation.Sanitize(req.City)
	model := validation.Sanitize(req.ProductModel)
	phone := strings.TrimSpace(req.Phone)
	if err = lengthBetween("city", "City", city, 2, 100); err != nil {
		return
	}
	if err = lengthBetween("product_model", "Product model", model, 2, 50); err != nil {
		return
	}
	if err = lengthBetween("phone", "Phone", phone, 10, 20); err != nil {
		return
	}

	cost, days := DeliveryEstimate(city)
	dr := models.DeliveryRequest_db{
		City:          city,
		ProductModel:  model,
		Phone:         phone,
		EstimatedCost: cost,
		EstimatedDays: days,
		Status:        models.LeadStatusNew,
	}
	var id int
	id, err = ls.lr.CreateDeliveryRequest(ctx, dr)
	if err != nil {
		return
	}
	slog.Info("delivery estimate", "request_id", id, "city", city, "model", model)

	quote = entities.DeliveryQuote{
		RequestId:     id,
		City:          city,
		ProductModel:  model,
		EstimatedCost: cost,
		EstimatedDays: days,
	}
	event := notify.NewEvent(notify.EventDeliveryRequested, "РАСЧЕТ ДОСТАВКИ #"+strconv.Itoa(id), quote).
		With("Телефон", phone).
		With("Город", city).
		With("Модель", model).
		With("Примерная стоимость", cost.String()+" ₽").
		With("Примерный срок", days+" дней")
	notifyAsync(ls.notifier, event)
	return
}

func leadSearch(status string, limit, offset int) (data models.LeadSearchData, err error) {
	if limit == 0 {
		limit = DefaultLeadLimit
	}
	if limit < 1 || limit > MaxLeadLimit {
		err = models.NewValidationError("limit", "Invalid limit parameter. Must be between 1 and 100.")
		return
	}
	if offset < 0 {
		err = models.NewValidationError("offset", "Offset can not be negative")
		return
	}
	data = models.LeadSearchData{Limit: limit, Offset: offset}
	if status = strings.TrimSpace(status); status != "" {
		data.Status = &status
	}
	return
}

func (ls *LeadService) SearchContacts(ctx context.Context, status string, limit, offset int) (page entities.LeadPage[entities.Contact], err error) {
	var data models.LeadSearchData
	if data, err = leadSearch(status, limit, offset); err != nil {
		return
	}
	contacts, total, e := ls.lr.SearchContacts(ctx, data)
	if e != nil {
		err = e
		return
	}
	page = entities.LeadPage[entities.Contact]{Data: make([]entities.Contact, 0, len(contacts)), Total: total, Limit: data.Limit, Offset: data.Offset}
	for _, c := range contacts {
		page.Data = append(page.Data, toContact(c))
	}
	return
}

func (ls *LeadService) SearchDeliveryRequests(ctx context.Context, status string, limit, offset int) (page entities.LeadPage[entities.DeliveryQuote], err error) {
	var data models.LeadSearchData
	if data, err = leadSearch(status, limit, offset); err != nil {
		return
	}
	reqs, total, e := ls.lr.SearchDeliveryRequests(ctx, data)
	if e != nil {
		err = e
		return
	}
	page = entities.LeadPage[entities.DeliveryQuote]{Data: make([]entities.DeliveryQuote, 0, len(reqs)), Total: total, Limit: data.Limit, Offset: data.Offset}
	for _, d := range reqs {
		page.Data = append(page.Data, toDeliveryQuote(d))
	}
	return
}
