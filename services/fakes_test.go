package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/notify"
)

var errStore = errors.New("store unavailable")

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeCategoryRepo struct {
	cats     map[int]models.Category_db
	products map[int]int
	nextId   int
	lists    int
}

func newFakeCategoryRepo(cats ...models.Category_db) *fakeCategoryRepo {
	f := &fakeCategoryRepo{cats: map[int]models.Category_db{}, products: map[int]int{}}
	for _, c := range cats {
		f.cats[c.Id] = c
		if c.Id > f.nextId {
			f.nextId = c.Id
		}
	}
	return f
}

func (f *fakeCategoryRepo) GetAllCategories(ctx context.Context, search string) ([]models.Category_db, error) {
	f.lists++
	res := []models.Category_db{}
	for _, c := range f.cats {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (f *fakeCategoryRepo) GetCategoryById(ctx context.Context, catId int) (models.Category_db, bool, error) {
	c, ok := f.cats[catId]
	return c, ok, nil
}

func (f *fakeCategoryRepo) GetCategoryBySlug(ctx context.Context, slug string) (models.Category_db, bool, error) {
	for _, c := range f.cats {
		if c.Slug == slug {
			return c, true, nil
		}
	}
	return models.Category_db{}, false, nil
}

func (f *fakeCategoryRepo) CategoryExist(ctx context.Context, catId int) (bool, error) {
	_, ok := f.cats[catId]
	return ok, nil
}

func (f *fakeCategoryRepo) slugTaken(slug string, except int) bool {
	for _, c := range f.cats {
		if c.Slug == slug && c.Id != except {
			return true
		}
	}
	return false
}

func (f *fakeCategoryRepo) CreateCategory(ctx context.Context, cat models.Category_db) (int, error) {
	if f.slugTaken(cat.Slug, 0) {
		return 0, &models.ConflictError{Message: "category with this slug already exists"}
	}
	f.nextId++
	cat.Id = f.nextId
	f.cats[cat.Id] = cat
	return cat.Id, nil
}

func (f *fakeCategoryRepo) UpdateCategory(ctx context.Context, cat models.Category_db) error {
	if _, ok := f.cats[cat.Id]; !ok {
		return models.ErrNotFoundError
	}
	if f.slugTaken(cat.Slug, cat.Id) {
		return &models.ConflictError{Message: "category with this slug already exists"}
	}
	f.cats[cat.Id] = cat
	return nil
}

func (f *fakeCategoryRepo) DeleteCategory(ctx context.Context, catId int) error {
	delete(f.cats, catId)
	return nil
}

func (f *fakeCategoryRepo) CountProducts(ctx context.Context, catId int) (int, error) {
	return f.products[catId], nil
}

type fakeProductRepo struct {
	bySlug  map[string]models.Product_db
	nextId  int
	writes  int
	failFor string
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{bySlug: map[string]models.Product_db{}}
}

func (f *fakeProductRepo) GetProductById(ctx context.Context, id int) (models.Product_db, bool, error) {
	for _, p := range f.bySlug {
		if p.Id == id {
			return p, true, nil
		}
	}
	return models.Product_db{}, false, nil
}

func (f *fakeProductRepo) GetProductBySlug(ctx context.Context, slug string) (models.Product_db, bool, error) {
	p, ok := f.bySlug[slug]
	return p, ok, nil
}

func (f *fakeProductRepo) SearchProducts(ctx context.Context, data models.ProductSearchData) ([]models.Product_db, error) {
	res := []models.Product_db{}
	for _, p := range f.bySlug {
		res = append(res, p)
	}
	return res, nil
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p models.Product_db) (int, error) {
	if _, ok := f.bySlug[p.Slug]; ok {
		return 0, &models.ConflictError{Message: "product with this slug already exists"}
	}
	return f.UpsertProduct(ctx, p)
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, p models.Product_db) error {
	for slug, old := range f.bySlug {
		if old.Id == p.Id {
			delete(f.bySlug, slug)
			f.bySlug[p.Slug] = p
			f.writes++
			return nil
		}
	}
	return models.ErrNotFoundError
}

func (f *fakeProductRepo) UpsertProduct(ctx context.Context, p models.Product_db) (int, error) {
	if p.Slug == f.failFor {
		return 0, models.ErrServerError
	}
	f.writes++
	if old, ok := f.bySlug[p.Slug]; ok {
		p.Id = old.Id
	} else {
		f.nextId++
		p.Id = f.nextId
	}
	f.bySlug[p.Slug] = p
	return p.Id, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id int) error {
	for slug, p := range f.bySlug {
		if p.Id == id {
			delete(f.bySlug, slug)
			return nil
		}
	}
	return models.ErrNotFoundError
}

type fakeCustomerRepo struct {
	byEmail map[string]models.Customer_db
	nextId  int
	fail    bool
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{byEmail: map[string]models.Customer_db{}}
}

func (f *fakeCustomerRepo) UpsertCustomer(ctx context.Context, c models.Customer_db) (int, error) {
	if f.fail {
		return 0, models.ErrServerError
	}
	if old, ok := f.byEmail[c.Email]; ok {
		c.Id = old.Id
	} else {
		f.nextId++
		c.Id = f.nextId
	}
	f.byEmail[c.Email] = c
	return c.Id, nil
}

func (f *fakeCustomerRepo) GetCustomerById(ctx context.Context, id int) (models.Customer_db, bool, error) {
	for _, c := range f.byEmail {
		if c.Id == id {
			return c, true, nil
		}
	}
	return models.Customer_db{}, false, nil
}

func (f *fakeCustomerRepo) GetCustomerByEmail(ctx context.Context, email string) (models.Customer_db, bool, error) {
	c, ok := f.byEmail[email]
	return c, ok, nil
}

type fakeOrderRepo struct {
	orders     map[int]models.Order_db
	items      map[int][]models.OrderItem_db
	nextId     int
	failOrder  bool
	failItems  bool
	failDelete bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int]models.Order_db{}, items: map[int][]models.OrderItem_db{}}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, o models.Order_db) (int, time.Time, error) {
	if f.failOrder {
		return 0, time.Time{}, models.ErrServerError
	}
	f.nextId++
	o.Id = f.nextId
	o.CreatedAt, o.UpdatedAt = fixedNow, fixedNow
	f.orders[o.Id] = o
	return o.Id, fixedNow, nil
}

func (f *fakeOrderRepo) SetOrderItems(ctx context.Context, orderId int, items []models.OrderItem_db) error {
	if f.failItems {
		return models.ErrServerError
	}
	for i := range items {
		items[i].Id = len(f.items[orderId]) + 1
		f.items[orderId] = append(f.items[orderId], items[i])
	}
	return nil
}

func (f *fakeOrderRepo) DeleteOrder(ctx context.Context, orderId int) error {
	if f.failDelete {
		return models.ErrServerError
	}
	if _, ok := f.orders[orderId]; !ok {
		return models.ErrNotFoundError
	}
	delete(f.orders, orderId)
	delete(f.items, orderId)
	return nil
}

func (f *fakeOrderRepo) GetOrderById(ctx context.Context, orderId int) (models.Order_db, bool, error) {
	o, ok := f.orders[orderId]
	return o, ok, nil
}

func (f *fakeOrderRepo) GetOrderItems(ctx context.Context, orderId int) ([]models.OrderItem_db, error) {
	return f.items[orderId], nil
}

func (f *fakeOrderRepo) SearchOrders(ctx context.Context, data models.OrderSearchData) ([]models.Order_db, int, error) {
	all := []models.Order_db{}
	for _, o := range f.orders {
		if data.CustomerId != nil && o.CustomerId != *data.CustomerId {
			continue
		}
		if data.Status != nil && o.Status != *data.Status {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Id > all[j].Id })
	total := len(all)
	if data.Offset >= len(all) {
		return []models.Order_db{}, total, nil
	}
	all = all[data.Offset:]
	if len(all) > data.Limit {
		all = all[:data.Limit]
	}
	return all, total, nil
}

type fakeLeadRepo struct {
	contacts   []models.Contact_db
	deliveries []models.DeliveryRequest_db
}

func (f *fakeLeadRepo) CreateContact(ctx context.Context, c models.Contact_db) (int, error) {
	c.Id = len(f.contacts) + 1
	c.CreatedAt = fixedNow
	f.contacts = append(f.contacts, c)
	return c.Id, nil
}

func (f *fakeLeadRepo) SearchContacts(ctx context.Context, data models.LeadSearchData) ([]models.Contact_db, int, error) {
	return f.contacts, len(f.contacts), nil
}

func (f *fakeLeadRepo) CreateDeliveryRequest(ctx context.Context, d models.DeliveryRequest_db) (int, error) {
	d.Id = len(f.deliveries) + 1
	d.CreatedAt = fixedNow
	f.deliveries = append(f.deliveries, d)
	return d.Id, nil
}

func (f *fakeLeadRepo) SearchDeliveryRequests(ctx context.Context, data models.LeadSearchData) ([]models.DeliveryRequest_db, int, error) {
	return f.deliveries, len(f.deliveries), nil
}

type fakeUserRepo struct {
	users map[string]models.User_db
}

func (f *fakeUserRepo) GetUserByName(ctx context.Context, name string) (models.User_db, bool, error) {
	u, ok := f.users[name]
	return u, ok, nil
}

func (f *fakeUserRepo) EncryptPassword(p string) (string, error) {
	return "hashed:" + p, nil
}

func (f *fakeUserRepo) VerifyPassword(hashed, sent string) bool {
	return hashed == "hashed:"+sent
}

func (f *fakeUserRepo) AddNewUser(ctx context.Context, u models.User_db) (int, error) {
	u.Id = len(f.users) + 1
	f.users[u.Nickname] = u
	return u.Id, nil
}

type fakeSessionRepo struct {
	sessions map[string]models.User_db
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, userId int, role string) (string, time.Time, error) {
	id := "session-" + role
	f.sessions[id] = models.User_db{Id: userId, Role: role}
	return id, fixedNow.Add(time.Hour), nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, sessionId string) error {
	delete(f.sessions, sessionId)
	return nil
}

func (f *fakeSessionRepo) GetUserSessionInfo(ctx context.Context, sessionId string) (int, string, bool, error) {
	if sessionId == "broken" {
		return 0, "", false, errStore
	}
	u, ok := f.sessions[sessionId]
	return u.Id, u.Role, ok, nil
}

type recordingNotifier struct {
	ok     bool
	events chan notify.Event
}

func newRecordingNotifier(ok bool) *recordingNotifier {
	return &recordingNotifier{ok: ok, events: make(chan notify.Event, 8)}
}

func (n *recordingNotifier) Notify(ctx context.Context, e notify.Event) bool {
	n.events <- e
	return n.ok
}
