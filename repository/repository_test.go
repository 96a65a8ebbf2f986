package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite3", ":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db, "sqlite3"))
	return db
}

func str(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func seedCategory(t *testing.T, repo CategoryRepository, name, slug string) int {
	t.Helper()
	id, err := repo.CreateCategory(context.Background(), models.Category_db{Name: name, Slug: slug})
	require.NoError(t, err)
	return id
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo, err := NewCategoryRepository(newTestDB(t))
	require.NoError(t, err)

	tractorsId := seedCategory(t, repo, "Tractors", "tractors")
	seedCategory(t, repo, "Attachments", "attachments")

	_, err = repo.CreateCategory(ctx, models.Category_db{Name: "Other", Slug: "tractors"})
	assert.ErrorIs(t, err, models.ErrConflict)

	cats, err := repo.GetAllCategories(ctx, "")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Attachments", cats[0].Name)

	cats, err = repo.GetAllCategories(ctx, "TRACT")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, tractorsId, cats[0].Id)

	cat, exists, err := repo.GetCategoryBySlug(ctx, "tractors")
	require.NoError(t, err)
	require.True(t, exists)
	cat.Description = str("Mini tractors")
	cat.DisplayOrder = sql.NullInt64{Int64: 1, Valid: true}
	require.NoError(t, repo.UpdateCategory(ctx, cat))

	cat, exists, err = repo.GetCategoryById(ctx, tractorsId)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Mini tractors", cat.Description.String)
	assert.False(t, cat.CreatedAt.IsZero())

	assert.ErrorIs(t, repo.UpdateCategory(ctx, models.Category_db{Id: 999, Name: "x", Slug: "x"}), models.ErrNotFoundError)
	assert.ErrorIs(t, repo.DeleteCategory(ctx, 999), models.ErrNotFoundError)

	require.NoError(t, repo.DeleteCategory(ctx, tractorsId))
	ok, err := repo.CategoryExist(ctx, tractorsId)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryDeleteBlockedByProducts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cats, _ := NewCategoryRepository(db)
	prods, _ := NewProductRepository(db)

	catId := seedCategory(t, cats, "Tractors", "tractors")
	_, err := prods.CreateProduct(ctx, models.Product_db{
		Name: "DF-244", Slug: "df-244", Price: decimal.NewFromInt(450000),
		CategoryId: sql.NullInt64{Int64: int64(catId), Valid: true}, InStock: true,
	})
	require.NoError(t, err)

	n, err := cats.CountProducts(ctx, catId)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, cats.DeleteCategory(ctx, catId), models.ErrConflict)
}

func TestProductUpsertReplacesBySlug(t *testing.T) {
	ctx := context.Background()
	repo, err := NewProductRepository(newTestDB(t))
	require.NoError(t, err)

	first := models.Product_db{
		Name: "DongFeng 244", Slug: "dongfeng-244", Price: decimal.NewFromInt(450000),
		OldPrice: decimal.NewNullDecimal(decimal.NewFromInt(500000)), Manufacturer: str("DongFeng"),
		InStock: true, Featured: true, Specifications: []byte(`{"power":"24 hp"}`),
	}
	id1, err := repo.UpsertProduct(ctx, first)
	require.NoError(t, err)

	second := models.Product_db{
		Name: "DongFeng 244 4WD", Slug: "dongfeng-244", Price: decimal.RequireFromString("99.9"),
	}
	id2, err := repo.UpsertProduct(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	got, exists, err := repo.GetProductBySlug(ctx, "dongfeng-244")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "DongFeng 244 4WD", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("99.9")))
	assert.False(t, got.OldPrice.Valid)
	assert.False(t, got.Manufacturer.Valid)
	assert.False(t, got.InStock)
	assert.False(t, got.Featured)
	assert.Empty(t, got.Specifications)

	all, err := repo.SearchProducts(ctx, models.ProductSearchData{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductCreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := NewProductRepository(newTestDB(t))

	id, err := repo.CreateProduct(ctx, models.Product_db{
		Name: "Plough", Slug: "plough", Price: decimal.NewFromInt(35000), InStock: true,
		Specifications: []byte(`{"width":"1.2 m"}`),
	})
	require.NoError(t, err)

	_, err = repo.CreateProduct(ctx, models.Product_db{Name: "Copy", Slug: "plough", Price: decimal.Zero})
	assert.ErrorIs(t, err, models.ErrConflict)

	p, exists, err := repo.GetProductById(ctx, id)
	require.NoError(t, err)
	require.True(t, exists)
	assert.JSONEq(t, `{"width":"1.2 m"}`, string(p.Specifications))

	p.Price = decimal.NewFromInt(33000)
	require.NoError(t, repo.UpdateProduct(ctx, p))
	p, _, _ = repo.GetProductById(ctx, id)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(33000)))

	require.NoError(t, repo.DeleteProduct(ctx, id))
	assert.ErrorIs(t, repo.DeleteProduct(ctx, id), models.ErrNotFoundError)
	_, exists, err = repo.GetProductById(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSearchProductsFilters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cats, _ := NewCategoryRepository(db)
	repo, _ := NewProductRepository(db)

	catId := seedCategory(t, cats, "Tractors", "tractors")
	inCat := sql.NullInt64{Int64: int64(catId), Valid: true}
	for _, p := range []models.Product_db{
		{Name: "DongFeng 244", Slug: "df-244", Price: decimal.NewFromInt(1), CategoryId: inCat, InStock: true},
		{Name: "DongFeng 404", Slug: "df-404", Price: decimal.NewFromInt(1), CategoryId: inCat, InStock: false},
		{Name: "Mower", Slug: "mower", Price: decimal.NewFromInt(1), InStock: true},
	} {
		_, err := repo.CreateProduct(ctx, p)
		require.NoError(t, err)
	}

	got, err := repo.SearchProducts(ctx, models.ProductSearchData{CategoryId: &catId, InStock: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "df-244", got[0].Slug)

	got, err = repo.SearchProducts(ctx, models.ProductSearchData{Query: "dongfeng", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.SearchProducts(ctx, models.ProductSearchData{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCustomerUpsertKeepsOneRowPerEmail(t *testing.T) {
	ctx := context.Background()
	repo, _ := NewCustomerRepository(newTestDB(t))

	id1, err := repo.UpsertCustomer(ctx, models.Customer_db{FirstName: "Ivan", LastName: "Petrov", Email: "ivan@example.com", Phone: "89123456789"})
	require.NoError(t, err)
	id2, err := repo.UpsertCustomer(ctx, models.Customer_db{FirstName: "Ivan", LastName: "Sidorov", Email: "ivan@example.com", Phone: "+79990000000"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	c, exists, err := repo.GetCustomerByEmail(ctx, "ivan@example.com")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Sidorov", c.LastName)
	assert.Equal(t, "+79990000000", c.Phone)
}

func newOrderFixture(t *testing.T) (OrderRepository, int, int) {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	customers, _ := NewCustomerRepository(db)
	products, _ := NewProductRepository(db)
	orders, _ := NewOrderRepository(db)

	custId, err := customers.UpsertCustomer(ctx, models.Customer_db{FirstName: "A", LastName: "B", Email: "a@b.ru", Phone: "89123456789"})
	require.NoError(t, err)
	prodId, err := products.CreateProduct(ctx, models.Product_db{Name: "DF-244", Slug: "df-244", Price: decimal.NewFromInt(450000), InStock: true})
	require.NoError(t, err)
	return orders, custId, prodId
}

func testOrder(custId int) models.Order_db {
	return models.Order_db{
		CustomerId: custId, TotalAmount: decimal.NewFromInt(900000), Status: models.OrderStatusPending,
		PaymentMethod: "cash", DeliveryMethod: "pickup",
		ShippingAddress: []byte(`{"city":"Москва","region":"Москва","country":"Россия"}`),
	}
}

func TestOrderWithItems(t *testing.T) {
	ctx := context.Background()
	orders, custId, prodId := newOrderFixture(t)

	orderId, createdAt, err := orders.CreateOrder(ctx, testOrder(custId))
	require.NoError(t, err)
	assert.False(t, createdAt.IsZero())

	require.NoError(t, orders.SetOrderItems(ctx, orderId, []models.OrderItem_db{
		{ProductId: prodId, Quantity: 2, Price: decimal.NewFromInt(450000)},
	}))

	o, exists, err := orders.GetOrderById(ctx, orderId)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.JSONEq(t, `{"city":"Москва","region":"Москва","country":"Россия"}`, string(o.ShippingAddress))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(900000)))

	items, err := orders.GetOrderItems(ctx, orderId)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, orders.DeleteOrder(ctx, orderId))
	items, err = orders.GetOrderItems(ctx, orderId)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSetOrderItemsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	orders, custId, prodId := newOrderFixture(t)

	orderId, _, err := orders.CreateOrder(ctx, testOrder(custId))
	require.NoError(t, err)

	err = orders.SetOrderItems(ctx, orderId, []models.OrderItem_db{
		{ProductId: prodId, Quantity: 1, Price: decimal.NewFromInt(450000)},
		{ProductId: 4242, Quantity: 1, Price: decimal.NewFromInt(1)},
	})
	assert.ErrorIs(t, err, models.ErrServerError)

	items, err := orders.GetOrderItems(ctx, orderId)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, orders.DeleteOrder(ctx, orderId))
	_, exists, err := orders.GetOrderById(ctx, orderId)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSearchOrders(t *testing.T) {
	ctx := context.Background()
	orders, custId, _ := newOrderFixture(t)

	var ids []int
	for i := 0; i < 3; i++ {
		id, _, err := orders.CreateOrder(ctx, testOrder(custId))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page, total, err := orders.SearchOrders(ctx, models.OrderSearchData{CustomerId: &custId, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].Id)

	page, _, err = orders.SearchOrders(ctx, models.OrderSearchData{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].Id)

	shipped := "shipped"
	page, total, err = orders.SearchOrders(ctx, models.OrderSearchData{Status: &shipped, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestLeads(t *testing.T) {
	ctx := context.Background()
	repo, _ := NewLeadRepository(newTestDB(t))

	_, err := repo.CreateContact(ctx, models.Contact_db{Name: "Ivan", Phone: "89123456789", Message: str("Call me"), Status: models.LeadStatusNew})
	require.NoError(t, err)
	_, err = repo.CreateContact(ctx, models.Contact_db{Name: "Olga", Phone: "89123456780", Status: "processed"})
	require.NoError(t, err)

	newStatus := models.LeadStatusNew
	contacts, total, err := repo.SearchContacts(ctx, models.LeadSearchData{Status: &newStatus, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Call me", contacts[0].Message.String)
	assert.False(t, contacts[0].Email.Valid)

	id, err := repo.CreateDeliveryRequest(ctx, models.DeliveryRequest_db{
		City: "Казань", ProductModel: "DF-244", Phone: "89123456789",
		EstimatedCost: decimal.NewFromInt(6000), EstimatedDays: "3-5", Status: models.LeadStatusNew,
	})
	require.NoError(t, err)

	reqs, total, err := repo.SearchDeliveryRequests(ctx, models.LeadSearchData{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, reqs, 1)
	assert.Equal(t, id, reqs[0].Id)
	assert.Equal(t, "3-5", reqs[0].EstimatedDays)
	assert.True(t, reqs[0].EstimatedCost.Equal(decimal.NewFromInt(6000)))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo, _ := NewUserRepository(newTestDB(t))

	hash, err := repo.EncryptPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, repo.VerifyPassword(hash, "s3cret"))
	assert.False(t, repo.VerifyPassword(hash, "wrong"))

	id, err := repo.AddNewUser(ctx, models.User_db{Nickname: "admin", Password: hash, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = repo.AddNewUser(ctx, models.User_db{Nickname: "admin", Password: hash, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, models.ErrConflict)

	u, exists, err := repo.GetUserByName(ctx, "admin")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, models.RoleAdmin, u.Role)

	_, exists, err = repo.GetUserByName(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}
