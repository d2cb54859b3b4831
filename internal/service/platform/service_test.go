package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahq/mesa/internal/entity"
	repo "github.com/mesahq/mesa/internal/repository/platform"
	"github.com/mesahq/mesa/pkg/errorbank"
)

type fakeStore struct {
	config   *entity.RestaurantConfig
	rates    map[string]*entity.TaxServiceRate
	couriers map[string]*entity.DeliveryService
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		config: &entity.RestaurantConfig{
			ID:          "cfg",
			Name:        "Mesa",
			Status:      entity.RestaurantOpen,
			OpeningTime: "09:00",
			ClosingTime: "22:00",
			Currency:    "USD",
		},
		rates:    map[string]*entity.TaxServiceRate{},
		couriers: map[string]*entity.DeliveryService{},
	}
}

func (f *fakeStore) GetConfig(context.Context) (*entity.RestaurantConfig, error) {
	if f.config == nil {
		return nil, repo.ErrNotFound
	}
	return f.config, nil
}

func (f *fakeStore) UpdateConfig(_ context.Context, cfg *entity.RestaurantConfig) error {
	f.config = cfg
	return nil
}

func (f *fakeStore) CreateTaxRate(_ context.Context, rate *entity.TaxServiceRate) error {
	f.rates[rate.ID] = rate
	return nil
}

func (f *fakeStore) GetTaxRate(_ context.Context, id string) (*entity.TaxServiceRate, error) {
	if r, ok := f.rates[id]; ok {
		return r, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) ListTaxRates(context.Context) ([]*entity.TaxServiceRate, error) {
	var out []*entity.TaxServiceRate
	for _, r := range f.rates {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) UpdateTaxRate(_ context.Context, rate *entity.TaxServiceRate) error {
	f.rates[rate.ID] = rate
	return nil
}

func (f *fakeStore) DeleteTaxRate(_ context.Context, id string) error {
	if _, ok := f.rates[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.rates, id)
	return nil
}

func (f *fakeStore) CreateDeliveryService(_ context.Context, svc *entity.DeliveryService) error {
	f.couriers[svc.ID] = svc
	return nil
}

func (f *fakeStore) GetDeliveryService(_ context.Context, id string) (*entity.DeliveryService, error) {
	if c, ok := f.couriers[id]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) ListDeliveryServices(context.Context) ([]*entity.DeliveryService, error) {
	var out []*entity.DeliveryService
	for _, c := range f.couriers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateDeliveryService(_ context.Context, svc *entity.DeliveryService) error {
	f.couriers[svc.ID] = svc
	return nil
}

func (f *fakeStore) DeleteDeliveryService(_ context.Context, id string) error {
	if _, ok := f.couriers[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.couriers, id)
	return nil
}

func TestSetStatus(t *testing.T) {
	store := newFakeStore()
	svc := &Service{store: store}
	ctx := context.Background()

	cfg, err := svc.SetStatus(ctx, entity.RestaurantBusy)
	require.NoError(t, err)
	assert.Equal(t, entity.RestaurantBusy, cfg.Status)
	assert.Equal(t, entity.RestaurantBusy, store.config.Status)

	_, err = svc.SetStatus(ctx, entity.RestaurantStatus("ON_FIRE"))
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
	assert.Equal(t, entity.RestaurantBusy, store.config.Status, "rejected update leaves state alone")
}

func TestSetHoursValidatesFormat(t *testing.T) {
	store := newFakeStore()
	svc := &Service{store: store}
	ctx := context.Background()

	cfg, err := svc.SetHours(ctx, "08:30", "23:00")
	require.NoError(t, err)
	assert.Equal(t, "08:30", cfg.OpeningTime)
	assert.Equal(t, "23:00", cfg.ClosingTime)

	for _, bad := range []string{"25:00", "9:00", "nine", ""} {
		_, err := svc.SetHours(ctx, bad, "22:00")
		assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err), bad)
	}
}

func TestSetCurrencyNormalises(t *testing.T) {
	store := newFakeStore()
	svc := &Service{store: store}
	ctx := context.Background()

	cfg, err := svc.SetCurrency(ctx, " eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Currency)

	_, err = svc.SetCurrency(ctx, "EURO")
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
}

func TestSetNameRejectsBlank(t *testing.T) {
	svc := &Service{store: newFakeStore()}

	_, err := svc.SetName(context.Background(), "   ")
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
}

func TestTaxRateBounds(t *testing.T) {
	svc := &Service{store: newFakeStore()}
	ctx := context.Background()

	rate, err := svc.CreateTaxRate(ctx, TaxRateInput{Name: "VAT", Rate: 20})
	require.NoError(t, err)
	assert.True(t, rate.IsActive)

	_, err = svc.CreateTaxRate(ctx, TaxRateInput{Name: "Bad", Rate: 120})
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))

	updated, err := svc.UpdateTaxRate(ctx, rate.ID, TaxRateInput{Rate: 21})
	require.NoError(t, err)
	assert.Equal(t, 21.0, updated.Rate)

	_, err = svc.UpdateTaxRate(ctx, "ghost", TaxRateInput{Rate: 5})
	assert.Equal(t, errorbank.KindNotFound, errorbank.KindOf(err))
}

func TestDeliveryServiceLifecycle(t *testing.T) {
	svc := &Service{store: newFakeStore()}
	ctx := context.Background()

	courier, err := svc.CreateDeliveryService(ctx, DeliveryInput{Name: "FastBike", Phone: "15550002222"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.UpdateDeliveryService(ctx, courier.ID, DeliveryInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.DeleteDeliveryService(ctx, courier.ID))
	err = svc.DeleteDeliveryService(ctx, courier.ID)
	assert.Equal(t, errorbank.KindNotFound, errorbank.KindOf(err))
}
