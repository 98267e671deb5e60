package crm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// memStore is a Store for tests. Transactions work on a cloned state that
// replaces the live one only on commit.
type memStore struct {
	*memQueries
	commits   int
	rollbacks int
}

type memState struct {
	customers map[string]Customer
	products  map[string]Product
	orders    map[string]Order
	links     map[string][]string
}

type memQueries struct {
	st *memState
	// fail forces an operation (by method name) to return the error.
	fail map[string]error
	// failEmail forces InsertCustomer to fail for a lowercased email.
	failEmail map[string]error
	// afterLowStock runs once LowStockProducts has taken its snapshot.
	afterLowStock func(st *memState)
}

func newMemStore() *memStore {
	return &memStore{memQueries: &memQueries{
		st: &memState{
			customers: map[string]Customer{},
			products:  map[string]Product{},
			orders:    map[string]Order{},
			links:     map[string][]string{},
		},
		fail:      map[string]error{},
		failEmail: map[string]error{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		customers: make(map[string]Customer, len(s.customers)),
		products:  make(map[string]Product, len(s.products)),
		orders:    make(map[string]Order, len(s.orders)),
		links:     make(map[string][]string, len(s.links)),
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.links {
		c.links[k] = append([]string(nil), v...)
	}
	return c
}

func (m *memStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	if err := m.fail["WithTx"]; err != nil {
		return err
	}
	work := m.st.clone()
	if err := fn(&memQueries{st: work, fail: m.fail, failEmail: m.failEmail}); err != nil {
		m.rollbacks++
		return err
	}
	*m.st = *work
	m.commits++
	return nil
}

func (m *memStore) seedCustomer(name, email string) Customer {
	c := Customer{ID: "c-" + strings.ToLower(name), Name: name, Email: email, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.st.customers[c.ID] = c
	return c
}

func (m *memStore) seedProduct(id, price string, stock int) Product {
	p := Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock}
	m.st.products[id] = p
	return p
}

func (q *memQueries) EmailExists(ctx context.Context, email string) (bool, error) {
	if err := q.fail["EmailExists"]; err != nil {
		return false, err
	}
	for _, c := range q.st.customers {
		if strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueries) InsertCustomer(ctx context.Context, c *Customer) error {
	if err := q.fail["InsertCustomer"]; err != nil {
		return err
	}
	if err := q.failEmail[strings.ToLower(c.Email)]; err != nil {
		return err
	}
	for _, existing := range q.st.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return ErrDuplicateEmail
		}
	}
	q.st.customers[c.ID] = *c
	return nil
}

func (q *memQueries) InsertProduct(ctx context.Context, p *Product) error {
	if err := q.fail["InsertProduct"]; err != nil {
		return err
	}
	q.st.products[p.ID] = *p
	return nil
}

func (q *memQueries) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if err := q.fail["GetCustomer"]; err != nil {
		return nil, err
	}
	c, ok := q.st.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (q *memQueries) GetProducts(ctx context.Context, ids []string) ([]Product, error) {
	if err := q.fail["GetProducts"]; err != nil {
		return nil, err
	}
	var out []Product
	for _, id := range ids {
		if p, ok := q.st.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *memQueries) InsertOrder(ctx context.Context, o *Order) error {
	if err := q.fail["InsertOrder"]; err != nil {
		return err
	}
	stored := *o
	stored.ProductIDs = nil
	q.st.orders[o.ID] = stored
	return nil
}

func (q *memQueries) AttachProducts(ctx context.Context, orderID string, productIDs []string) error {
	if err := q.fail["AttachProducts"]; err != nil {
		return err
	}
	q.st.links[orderID] = append(q.st.links[orderID], productIDs...)
	return nil
}

func (q *memQueries) SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	if err := q.fail["SetOrderTotal"]; err != nil {
		return err
	}
	o, ok := q.st.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.TotalAmount = total
	q.st.orders[orderID] = o
	return nil
}

func (q *memQueries) LowStockProducts(ctx context.Context, threshold int) ([]Product, error) {
	if err := q.fail["LowStockProducts"]; err != nil {
		return nil, err
	}
	out := []Product{}
	for _, p := range q.st.products {
		if p.Stock < threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.afterLowStock != nil {
		q.afterLowStock(q.st)
	}
	return out, nil
}

func (q *memQueries) IncrementStock(ctx context.Context, productID string, amount int) (int, error) {
	if err := q.fail["IncrementStock"]; err != nil {
		return 0, err
	}
	p, ok := q.st.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	p.Stock = min(p.Stock+amount, MaxStock)
	q.st.products[productID] = p
	return p.Stock, nil
}

func (q *memQueries) RaiseStock(ctx context.Context, productID string, floor int) (bool, error) {
	if err := q.fail["RaiseStock"]; err != nil {
		return false, err
	}
	p, ok := q.st.products[productID]
	if !ok || p.Stock >= floor {
		return false, nil
	}
	p.Stock = floor
	q.st.products[productID] = p
	return true, nil
}

func (q *memQueries) ListCustomers(ctx context.Context, s Sort) ([]Customer, error) {
	if err := q.fail["ListCustomers"]; err != nil {
		return nil, err
	}
	out := []Customer{}
	for _, c := range q.st.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if s.Desc {
			a, b = b, a
		}
		switch s.Field {
		case "name":
			return a.Name < b.Name
		case "email":
			return a.Email < b.Email
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (q *memQueries) ListProducts(ctx context.Context, s Sort) ([]Product, error) {
	if err := q.fail["ListProducts"]; err != nil {
		return nil, err
	}
	out := []Product{}
	for _, p := range q.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if s.Desc {
			a, b = b, a
		}
		switch s.Field {
		case "stock":
			return a.Stock < b.Stock
		case "price":
			return a.Price.LessThan(b.Price)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (q *memQueries) ListOrders(ctx context.Context, s Sort) ([]Order, error) {
	if err := q.fail["ListOrders"]; err != nil {
		return nil, err
	}
	out := []Order{}
	for id, o := range q.st.orders {
		o.ProductIDs = append([]string{}, q.st.links[id]...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *memQueries) OrdersSince(ctx context.Context, since time.Time) ([]RecentOrder, error) {
	if err := q.fail["OrdersSince"]; err != nil {
		return nil, err
	}
	var out []RecentOrder
	for _, o := range q.st.orders {
		if o.OrderDate.Before(since) {
			continue
		}
		out = append(out, RecentOrder{OrderID: o.ID, CustomerEmail: q.st.customers[o.CustomerID].Email, OrderDate: o.OrderDate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.Before(out[j].OrderDate) })
	return out, nil
}

var _ Store = (*memStore)(nil)
