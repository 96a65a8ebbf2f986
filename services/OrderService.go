package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/metrics"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/notify"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
	"github.com/TARS911/dongfeng-minitraktor-sub001/validation"
)

const (
	DefaultPaymentMethod  = "cash"
	DefaultDeliveryMethod = "pickup"
	DefaultCountry        = "Россия"

	DefaultOrderPageLimit = 20
	MaxOrderPageLimit     = 100

	notifyTimeout = 15 * time.Second
)

type OrderService struct {
	cur      repository.CustomerRepository
	or       repository.OrderRepository
	notifier notify.Notifier
	metrics  *metrics.ServerMetrics
}

func NewOrderService(customerRepo repository.CustomerRepository, orderRepo repository.OrderRepository, notifier notify.Notifier, m *metrics.ServerMetrics) OrderService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return OrderService{
		cur:      customerRepo,
		or:       orderRepo,
		notifier: notifier,
		metrics:  m,
	}
}

func validateOrder(req entities.OrderRequest) error {
	if req.Customer == nil || req.ShippingAddress == nil || len(req.Items) == 0 {
		return models.NewValidationError("order", "Customer, shipping address and items are required")
	}
	c := req.Customer
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" ||
		strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Phone) == "" {
		return models.NewValidationError("customer", "Customer firstName, lastName, email and phone are required")
	}
	if !validation.IsEmail(strings.TrimSpace(c.Email)) {
		return models.NewValidationError("email", "Invalid email format")
	}
	if !validation.IsPhone(strings.TrimSpace(c.Phone)) {
		return models.NewValidationError("phone", "Invalid phone format. Use: +7 (XXX) XXX-XX-XX")
	}
	if strings.TrimSpace(req.ShippingAddress.City) == "" || strings.TrimSpace(req.ShippingAddress.Region) == "" {
		return models.NewValidationError("shippingAddress", "City and region are required")
	}
	for _, it := range req.Items {
		if it.ProductId == 0 || it.Quantity == 0 || it.Price == nil {
			return models.NewValidationError("items", "Each item must have productId, quantity and price")
		}
		if !validation.IsId(it.ProductId) {
			return models.NewValidationError("items", "Invalid productId")
		}
		if it.Quantity < 1 {
			return models.NewValidationError("items", "Quantity must be at least 1")
		}
		if it.Price.IsNegative() {
			return models.NewValidationError("items", "Price must be a non-negative number")
		}
	}
	return nil
}

// OrderTotal is the sum of price × quantity over the submitted items. The
// client prices are taken as is.
func OrderTotal(items []entities.OrderItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func withDefault(s, def string) string {
	if s = validation.Sanitize(s); s == "" {
		return def
	}
	return s
}

// CreateOrder runs the checkout pipeline: customer upsert, order row, item
// rows. When the items can not be written the order row is deleted again,
// so a failed submission never leaves an order without items.
func (ors *OrderService) CreateOrder(ctx context.Context, req entities.OrderRequest) (created entities.OrderCreated, err error) {
	defer func() {
		switch {
		case err == nil:
			ors.metrics.ObserveOrder("created")
		case errors.Is(err, models.ErrBadRequest):
			ors.metrics.ObserveOrder("invalid")
		case errors.Is(err, models.ErrCompensation):
			ors.metrics.ObserveOrder("compensation_failed")
		default:
			ors.metrics.ObserveOrder("failed")
		}
	}()

	if err = validateOrder(req); err != nil {
		return
	}
	total := OrderTotal(req.Items)

	customer := models.Customer_db{
		FirstName: validation.Sanitize(req.Customer.FirstName),
		LastName:  validation.Sanitize(req.Customer.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		Phone:     strings.TrimSpace(req.Customer.Phone),
	}
	customerId, e := ors.cur.UpsertCustomer(ctx, customer)
	if e != nil {
		err = ors.stageError(models.ErrCustomerWrite, e)
		return
	}

	address := entities.ShippingAddress{
		Street:     validation.Sanitize(req.ShippingAddress.Street),
		City:       validation.Sanitize(req.ShippingAddress.City),
		Region:     validation.Sanitize(req.ShippingAddress.Region),
		PostalCode: validation.Sanitize(req.ShippingAddress.PostalCode),
		Country:    withDefault(req.ShippingAddress.Country, DefaultCountry),
	}
	addressDoc, e := json.Marshal(address)
	if e != nil {
		err = ors.stageError(models.ErrOrderWrite, e)
		return
	}
	order := models.Order_db{
		CustomerId:      customerId,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentMethod:   withDefault(req.PaymentMethod, DefaultPaymentMethod),
		DeliveryMethod:  withDefault(req.DeliveryMethod, DefaultDeliveryMethod),
		ShippingAddress: addressDoc,
		Comment:         optionalText(req.Comment),
	}
	orderId, createdAt, e := ors.or.CreateOrder(ctx, order)
	if e != nil {
		err = ors.stageError(models.ErrOrderWrite, e)
		return
	}

	items := make([]models.OrderItem_db, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem_db{
			OrderId:   orderId,
			ProductId: it.ProductId,
			Quantity:  it.Quantity,
			Price:     *it.Price,
		})
	}
	if e = ors.or.SetOrderItems(ctx, orderId, items); e != nil {
		slog.Error("CreateOrder: order items not written, deleting order", "order_id", orderId, "err", e)
		err = ors.compensate(orderId)
		return
	}

	created = entities.OrderCreated{
		Id:          orderId,
		OrderNumber: OrderNumber(orderId),
		TotalAmount: total,
		Status:      models.OrderStatusPending,
		CreatedAt:   createdAt,
	}
	slog.Info("order created", "order_id", orderId, "customer_id", customerId, "total", total.String())

	event := notify.NewEvent(notify.EventOrderCreated, "НОВЫЙ ЗАКАЗ "+created.OrderNumber, created).
		With("Покупатель", customer.FirstName+" "+customer.LastName).
		With("Телефон", customer.Phone).
		With("Email", customer.Email).
		With("Адрес", formatAddress(address)).
		With("Позиций", strconv.Itoa(len(items))).
		With("Сумма", total.StringFixed(2)+" ₽").
		With("Оплата", order.PaymentMethod).
		With("Доставка", order.DeliveryMethod).
		With("Комментарий", order.Comment.String)
	notifyAsync(ors.notifier, event)
	return
}

func (ors *OrderService) stageError(stage, cause error) error {
	slog.Error("CreateOrder", "stage", stage.Error(), "err", cause)
	return stage
}

// compensate deletes an order whose items failed. It runs on its own context
// so that a cancelled request still gets cleaned up.
func (ors *OrderService) compensate(orderId int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ors.or.DeleteOrder(ctx, orderId); err != nil {
		slog.Error("order compensation failed", "order_id", orderId, "err", err)
		return fmt.Errorf("%w (%w)", models.ErrItemWrite, models.ErrCompensation)
	}
	return models.ErrItemWrite
}

// pendingNotifications tracks deliveries started by notifyAsync.
var pendingNotifications sync.WaitGroup

// notifyAsync delivers e in the background; the outcome is only logged.
func notifyAsync(n notify.Notifier, e notify.Event) {
	pendingNotifications.Add(1)
	go func() {
		defer pendingNotifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if !n.Notify(ctx, e) {
			slog.Warn("notification not delivered", "event", e.Type, "event_id", e.Id)
		}
	}()
}

// WaitNotifications blocks until every background delivery has finished or
// ctx is done, and reports whether they all finished. Call it once no new
// requests can arrive, before closing the senders.
func WaitNotifications(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		pendingNotifications.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func formatAddress(a entities.ShippingAddress) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.PostalCode, a.Country, a.Region, a.City, a.Street} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GetOrderById returns the order with its customer and items.
func (ors *OrderService) GetOrderById(ctx context.Context, orderId int) (order entities.Order, err error) {
	oModel, exists, e := ors.or.GetOrderById(ctx, orderId)
	if e != nil {
		err = e
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	order = toOrder(oModel)

	var cust models.Customer_db
	cust, exists, err = ors.cur.GetCustomerById(ctx, oModel.CustomerId)
	if err != nil {
		return
	}
	if exists {
		c := toCustomer(cust)
		order.Customer = &c
	}

	var items []models.OrderItem_db
	items, err = ors.or.GetOrderItems(ctx, orderId)
	if err != nil {
		return
	}
	order.Items = make([]entities.OrderItem, 0, len(items))
	for _, it := range items {
		order.Items = append(order.Items, toOrderItem(it))
	}
	return
}

// ParseOrderNumber accepts "ORD-000042" (any case) or the bare id.
func ParseOrderNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 4 && strings.EqualFold(s[:4], "ORD-") {
		s = s[4:]
	}
	return validation.ParseId(s)
}

func (ors *OrderService) GetOrderByNumber(ctx context.Context, number string) (order entities.Order, err error) {
	orderId, ok := ParseOrderNumber(number)
	if !ok {
		err = models.NewValidationError("orderNumber", "Invalid order number")
		return
	}
	return ors.GetOrderById(ctx, orderId)
}

// SearchOrders lists orders newest first with their customers attached.
// Page numbering starts at 1; zero page or limit means the default.
func (ors *OrderService) SearchOrders(ctx context.Context, customerId *int, status string, page, limit int) (res entities.OrderPage, err error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultOrderPageLimit
	}
	if page < 1 {
		err = models.NewValidationError("page", "Page must be at least 1")
		return
	}
	if limit < 1 || limit > MaxOrderPageLimit {
		err = models.NewValidationError("limit", "Invalid limit parameter. Must be between 1 and 100.")
		return
	}
	data := models.OrderSearchData{
		CustomerId: customerId,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if status = strings.TrimSpace(status); status != "" {
		data.Status = &status
	}

	oModels, total, e := ors.or.SearchOrders(ctx, data)
	if e != nil {
		err = e
		return
	}

	customers := make(map[int]*entities.Customer)
	res.Orders = make([]entities.Order, 0, len(oModels))
	for _, o := range oModels {
		order := toOrder(o)
		c, seen := customers[o.CustomerId]
		if !seen {
			cust, exists, e := ors.cur.GetCustomerById(ctx, o.CustomerId)
			if e != nil {
				err = e
				return
			}
			if exists {
				ce := toCustomer(cust)
				c = &ce
			}
			customers[o.CustomerId] = c
		}
		order.Customer = c
		res.Orders = append(res.Orders, order)
	}
	res.Pagination = entities.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	return
}
