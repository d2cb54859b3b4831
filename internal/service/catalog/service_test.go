package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahq/mesa/internal/cache"
	"github.com/mesahq/mesa/internal/entity"
	repo "github.com/mesahq/mesa/internal/repository/catalog"
	"github.com/mesahq/mesa/pkg/errorbank"
)

type fakeStore struct {
	categories map[string]*entity.MenuCategory
	items      map[string]*entity.MenuItem
	listCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: map[string]*entity.MenuCategory{},
		items:      map[string]*entity.MenuItem{},
	}
}

func (f *fakeStore) CreateCategory(_ context.Context, c *entity.MenuCategory) error {
	for _, existing := range f.categories {
		if existing.Name == c.Name {
			return repo.ErrDuplicate
		}
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) GetCategory(_ context.Context, id string) (*entity.MenuCategory, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) ListCategories(_ context.Context) ([]*entity.MenuCategory, error) {
	var out []*entity.MenuCategory
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, c *entity.MenuCategory) error {
	if _, ok := f.categories[c.ID]; !ok {
		return repo.ErrNotFound
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) CreateItem(_ context.Context, item *entity.MenuItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeStore) GetItem(_ context.Context, id string) (*entity.MenuItem, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) ListItems(_ context.Context, filter repo.ItemFilter) ([]*entity.MenuItem, error) {
	f.listCalls++
	var out []*entity.MenuItem
	for _, item := range f.items {
		if filter.CategoryID != "" && item.CategoryID != filter.CategoryID {
			continue
		}
		if filter.IsVegetarian != nil && item.IsVegetarian != *filter.IsVegetarian {
			continue
		}
		if filter.IsAvailable != nil && item.IsAvailable != *filter.IsAvailable {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeStore) UpdateItem(_ context.Context, item *entity.MenuItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return repo.ErrNotFound
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newTestService(store *fakeStore) (*Service, *memoryCache) {
	mem := newMemoryCache()
	return &Service{store: store, cache: mem, cacheTTL: time.Minute}, mem
}

func seedCategory(store *fakeStore, id, name string) {
	store.categories[id] = &entity.MenuCategory{ID: id, Name: name, IsActive: true}
}

func TestCreateItemRequiresExistingCategory(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	_, err := svc.CreateItem(context.Background(), ItemInput{
		CategoryID: "ghost",
		Name:       "Margherita",
		Price:      12.50,
	})
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))
	assert.Empty(t, store.items)

	seedCategory(store, "cat1", "Pizza")
	item, err := svc.CreateItem(context.Background(), ItemInput{
		CategoryID: "cat1",
		Name:       "Margherita",
		Price:      12.50,
	})
	require.NoError(t, err)
	assert.True(t, item.IsAvailable, "items default to available")
}

func TestListItemsServedFromCacheUntilInvalidated(t *testing.T) {
	store := newFakeStore()
	seedCategory(store, "cat1", "Pizza")
	store.items["m1"] = &entity.MenuItem{ID: "m1", CategoryID: "cat1", Name: "Margherita", Price: 12.50}
	svc, _ := newTestService(store)
	ctx := context.Background()

	first, err := svc.ListItems(ctx, repo.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, store.listCalls)

	// Second unfiltered read is a cache hit.
	second, err := svc.ListItems(ctx, repo.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, store.listCalls)

	// A write drops the cached menu.
	_, err = svc.CreateItem(ctx, ItemInput{CategoryID: "cat1", Name: "Diavola", Price: 14.00})
	require.NoError(t, err)

	third, err := svc.ListItems(ctx, repo.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, store.listCalls)
}

func TestListItemsFilteredBypassesCache(t *testing.T) {
	store := newFakeStore()
	store.items["m1"] = &entity.MenuItem{ID: "m1", CategoryID: "cat1", IsVegetarian: true}
	store.items["m2"] = &entity.MenuItem{ID: "m2", CategoryID: "cat2"}
	svc, _ := newTestService(store)
	ctx := context.Background()

	veg := true
	items, err := svc.ListItems(ctx, repo.ItemFilter{IsVegetarian: &veg})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].ID)

	_, err = svc.ListItems(ctx, repo.ItemFilter{IsVegetarian: &veg})
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "filtered listings always hit the store")
}

func TestCategoryNameConflict(t *testing.T) {
	store := newFakeStore()
	seedCategory(store, "cat1", "Pizza")
	svc, _ := newTestService(store)

	_, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Pizza"})
	assert.Equal(t, errorbank.KindConflict, errorbank.KindOf(err))
}

func TestUpdateItemChecksNewCategory(t *testing.T) {
	store := newFakeStore()
	seedCategory(store, "cat1", "Pizza")
	store.items["m1"] = &entity.MenuItem{ID: "m1", CategoryID: "cat1", Name: "Margherita", Price: 12.50}
	svc, _ := newTestService(store)

	_, err := svc.UpdateItem(context.Background(), "m1", ItemInput{CategoryID: "ghost"})
	assert.Equal(t, errorbank.KindBadRequest, errorbank.KindOf(err))

	updated, err := svc.UpdateItem(context.Background(), "m1", ItemInput{Price: 13.00})
	require.NoError(t, err)
	assert.Equal(t, 13.00, updated.Price)
}

func TestDeleteItemInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	store.items["m1"] = &entity.MenuItem{ID: "m1"}
	svc, mem := newTestService(store)
	ctx := context.Background()

	_, err := svc.ListItems(ctx, repo.ItemFilter{})
	require.NoError(t, err)
	assert.Contains(t, mem.data, menuItemsKey)

	require.NoError(t, svc.DeleteItem(ctx, "m1"))
	assert.NotContains(t, mem.data, menuItemsKey)

	err = svc.DeleteItem(ctx, "m1")
	assert.Equal(t, errorbank.KindNotFound, errorbank.KindOf(err))
}
