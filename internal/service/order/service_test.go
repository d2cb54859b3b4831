package order

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahq/mesa/internal/entity"
	repo "github.com/mesahq/mesa/internal/repository/order"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

type fakeStore struct {
	created      *entity.Order
	createdItems []*entity.OrderItem
	orders       map[string]*entity.Order
	lastFilter   repo.Filter
	updated      map[string]entity.OrderStatus
	deleted      []string
	createCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  map[string]*entity.Order{},
		updated: map[string]entity.OrderStatus{},
	}
}

func (f *fakeStore) CreateWithItems(_ context.Context, order *entity.Order, items []*entity.OrderItem) error {
	f.createCalls++
	f.created = order
	f.createdItems = items
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return order, nil
}

func (f *fakeStore) List(_ context.Context, filter repo.Filter) ([]*entity.Order, error) {
	f.lastFilter = filter
	var out []*entity.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status entity.OrderStatus) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	f.updated[id] = status
	order.Status = status
	return order, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.orders, id)
	return nil
}

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) PriceMap(_ context.Context, ids []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func newTestService(store *fakeStore, prices map[string]float64) *Service {
	return &Service{
		orders: store,
		prices: &fakePrices{prices: prices},
	}
}

func customer(id string) token.Identity {
	return token.Identity{UserID: id, Role: entity.RoleCustomer}
}

func TestCreateSnapshotsPrices(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, map[string]float64{"m1": 12.50})

	order, err := svc.Create(context.Background(), customer("c1"), CreateInput{
		LocationID:  "loc1",
		TotalAmount: 25.00,
		Items:       []ItemInput{{MenuItemID: "m1", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", order.UserID)
	assert.Equal(t, entity.OrderPending, order.Status)
	assert.False(t, order.Paid)
	assert.Equal(t, 25.00, order.TotalAmount)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.True(t, strings.HasSuffix(order.OrderNumber, "-c1"))

	require.Len(t, store.createdItems, 1)
	item := store.createdItems[0]
	assert.Equal(t, 12.50, item.Price)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 25.00, item.Total)
	assert.Equal(t, order.ID, item.OrderID)
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name    string
		caller  token.Identity
		input   CreateInput
		kind    errorbank.Kind
		message string
	}{
		{
			name:   "anonymous caller",
			caller: token.Identity{},
			input: CreateInput{
				LocationID:  "loc1",
				TotalAmount: 10,
				Items:       []ItemInput{{MenuItemID: "m1", Quantity: 1}},
			},
			kind: errorbank.KindUnauthorized,
		},
		{
			name:   "no items",
			caller: customer("c1"),
			input:  CreateInput{LocationID: "loc1", TotalAmount: 10},
			kind:   errorbank.KindBadRequest,
		},
		{
			name:   "non positive total",
			caller: customer("c1"),
			input: CreateInput{
				LocationID: "loc1",
				Items:      []ItemInput{{MenuItemID: "m1", Quantity: 1}},
			},
			kind: errorbank.KindBadRequest,
		},
		{
			name:   "missing location",
			caller: customer("c1"),
			input: CreateInput{
				TotalAmount: 10,
				Items:       []ItemInput{{MenuItemID: "m1", Quantity: 1}},
			},
			kind: errorbank.KindBadRequest,
		},
		{
			name:   "zero quantity names the item",
			caller: customer("c1"),
			input: CreateInput{
				LocationID:  "loc1",
				TotalAmount: 10,
				Items:       []ItemInput{{MenuItemID: "m1", Quantity: 0}},
			},
			kind:    errorbank.KindBadRequest,
			message: "item 0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, map[string]float64{"m1": 5})

			_, err := svc.Create(context.Background(), tc.caller, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.kind, errorbank.KindOf(err))
			if tc.message != "" {
				assert.Contains(t, err.Error(), tc.message)
			}
			assert.Zero(t, store.createCalls, "nothing may be written on validation failure")
		})
	}
}

func TestCreateUnknownMenuItemWritesNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, map[string]float64{"m1": 5})

	_, err := svc.Create(context.Background(), customer("c1"), CreateInput{
		LocationID:  "loc1",
		TotalAmount: 10,
		Items: []ItemInput{
			{MenuItemID: "m1", Quantity: 1},
			{MenuItemID: "ghost", Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
	assert.Contains(t, err.Error(), "Menu item not found: ghost")
	assert.Zero(t, store.createCalls)
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = &entity.Order{ID: "o1", UserID: "c1"}
	svc := newTestService(store, nil)

	_, err := svc.Get(context.Background(), customer("c2"), "o1")
	assert.Equal(t, errorbank.KindForbidden, errorbank.KindOf(err))

	order, err := svc.Get(context.Background(), customer("c1"), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	// Staff may read any order.
	_, err = svc.Get(context.Background(), token.Identity{UserID: "s1", Role: entity.RoleStaff}, "o1")
	assert.NoError(t, err)
}

func TestListAllScopesStaffToTheirLocation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	staff := token.Identity{UserID: "s1", Role: entity.RoleStaff, LocationID: "loc9"}
	_, err := svc.ListAll(context.Background(), staff, "loc1")
	require.NoError(t, err)
	assert.Equal(t, "loc9", store.lastFilter.LocationID)

	admin := token.Identity{UserID: "a1", Role: entity.RoleAdmin}
	_, err = svc.ListAll(context.Background(), admin, "loc1")
	require.NoError(t, err)
	assert.Equal(t, "loc1", store.lastFilter.LocationID)

	_, err = svc.ListAll(context.Background(), customer("c1"), "")
	assert.Equal(t, errorbank.KindForbidden, errorbank.KindOf(err))
}

func TestUpdateStatusRejectsCustomers(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = &entity.Order{ID: "o1", UserID: "c1", Status: entity.OrderPending}
	svc := newTestService(store, nil)

	_, err := svc.UpdateStatus(context.Background(), customer("c1"), "o1", entity.OrderConfirmed)
	assert.Equal(t, errorbank.KindForbidden, errorbank.KindOf(err))
	assert.Equal(t, entity.OrderPending, store.orders["o1"].Status, "status must be unchanged")

	staff := token.Identity{UserID: "s1", Role: entity.RoleStaff}
	order, err := svc.UpdateStatus(context.Background(), staff, "o1", entity.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderConfirmed, order.Status)
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = &entity.Order{ID: "o1", Status: entity.OrderPending}
	svc := newTestService(store, nil)

	staff := token.Identity{UserID: "s1", Role: entity.RoleStaff}
	_, err := svc.UpdateStatus(context.Background(), staff, "o1", entity.OrderStatus("BURNED"))
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
	assert.Empty(t, store.updated)
}

func TestDeleteOwnership(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = &entity.Order{ID: "o1", UserID: "c1"}
	svc := newTestService(store, nil)

	err := svc.Delete(context.Background(), customer("c2"), "o1")
	assert.Equal(t, errorbank.KindForbidden, errorbank.KindOf(err))
	assert.Empty(t, store.deleted)

	require.NoError(t, svc.Delete(context.Background(), customer("c1"), "o1"))
	assert.Equal(t, []string{"o1"}, store.deleted)
}
