package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/port"
)

// mockStore is an in-memory TxManager. A transaction holds the store lock for
// its whole duration and restores a snapshot when fn fails.
type mockStore struct {
	mu        sync.Mutex
	listings  map[string]domain.Listing
	entries   map[string]domain.CartEntry
	purchases map[string]domain.PurchaseRecord
	commits   int

	failCreatePurchase error
}

func newMockStore() *mockStore {
	return &mockStore{
		listings:  make(map[string]domain.Listing),
		entries:   make(map[string]domain.CartEntry),
		purchases: make(map[string]domain.PurchaseRecord),
	}
}

func (m *mockStore) WithinTransaction(ctx context.Context, fn port.TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings := cloneMap(m.listings)
	entries := cloneMap(m.entries)
	purchases := cloneMap(m.purchases)

	if err := fn(ctx, mockTx{m}); err != nil {
		m.listings, m.entries, m.purchases = listings, entries, purchases
		return err
	}
	m.commits++
	return nil
}

func cloneMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *mockStore) addListing(l domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.Status == "" {
		l.Status = domain.SaleStatusOnSale
	}
	m.listings[l.ID] = l
}

func (m *mockStore) addEntry(e domain.CartEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Quantity == 0 {
		e.Quantity = 1
	}
	m.entries[e.ID] = e
}

func (m *mockStore) listing(id string) domain.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings[id]
}

func (m *mockStore) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockStore) hasEntry(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

func (m *mockStore) purchasesFor(listingID string) []domain.PurchaseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PurchaseRecord
	for _, p := range m.purchases {
		if p.ListingID == listingID {
			out = append(out, p)
		}
	}
	return out
}

type mockTx struct{ m *mockStore }

func (t mockTx) Listings() port.ListingRepository   { return t }
func (t mockTx) Carts() port.CartRepository         { return t }
func (t mockTx) Purchases() port.PurchaseRepository { return t }

func (t mockTx) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, ok := t.m.listings[listingID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (t mockTx) TryMarkSold(ctx context.Context, listingID string) (bool, error) {
	l, ok := t.m.listings[listingID]
	if !ok || l.Status != domain.SaleStatusOnSale || l.Suppressed {
		return false, nil
	}
	l.Status = domain.SaleStatusSold
	t.m.listings[listingID] = l
	return true, nil
}

func (t mockTx) CreateListing(ctx context.Context, listing domain.Listing) error {
	t.m.listings[listing.ID] = listing
	return nil
}

func (t mockTx) UpsertEntry(ctx context.Context, entry domain.CartEntry) (string, error) {
	for id, e := range t.m.entries {
		if e.BuyerID == entry.BuyerID && e.ListingID == entry.ListingID {
			e.Quantity = 1
			e.Selected = true
			t.m.entries[id] = e
			return id, nil
		}
	}
	t.m.entries[entry.ID] = entry
	return entry.ID, nil
}

func (t mockTx) GetEntry(ctx context.Context, buyerID, entryID string) (*domain.CartEntry, error) {
	e, ok := t.m.entries[entryID]
	if !ok || e.BuyerID != buyerID {
		return nil, nil
	}
	return &e, nil
}

func (t mockTx) UpdateEntry(ctx context.Context, entry domain.CartEntry) error {
	t.m.entries[entry.ID] = entry
	return nil
}

func (t mockTx) DeleteEntry(ctx context.Context, buyerID, entryID string) error {
	if e, ok := t.m.entries[entryID]; ok && e.BuyerID == buyerID {
		delete(t.m.entries, entryID)
	}
	return nil
}

func (t mockTx) DeleteEntryByListing(ctx context.Context, buyerID, listingID string) error {
	for id, e := range t.m.entries {
		if e.BuyerID == buyerID && e.ListingID == listingID {
			delete(t.m.entries, id)
		}
	}
	return nil
}

func (t mockTx) lines(buyerID string, selectedOnly bool) []domain.CartLine {
	var lines []domain.CartLine
	for _, e := range t.m.entries {
		if e.BuyerID != buyerID || (selectedOnly && !e.Selected) {
			continue
		}
		line := domain.CartLine{Entry: e}
		if l, ok := t.m.listings[e.ListingID]; ok {
			line.Listing = &l
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Entry.ID < lines[j].Entry.ID })
	return lines
}

func (t mockTx) ListEntries(ctx context.Context, buyerID string) ([]domain.CartLine, error) {
	return t.lines(buyerID, false), nil
}

func (t mockTx) ListSelected(ctx context.Context, buyerID string) ([]domain.CartLine, error) {
	return t.lines(buyerID, true), nil
}

func (t mockTx) CreatePurchase(ctx context.Context, purchase domain.PurchaseRecord) error {
	if t.m.failCreatePurchase != nil {
		return t.m.failCreatePurchase
	}
	for _, p := range t.m.purchases {
		if p.ListingID == purchase.ListingID {
			return errors.New("duplicate purchase for listing")
		}
	}
	t.m.purchases[purchase.ID] = purchase
	return nil
}

func (t mockTx) views(match func(domain.PurchaseRecord) bool) []domain.PurchaseView {
	var views []domain.PurchaseView
	for _, p := range t.m.purchases {
		if match(p) {
			views = append(views, domain.PurchaseView{PurchaseRecord: p, ListingTitle: t.m.listings[p.ListingID].Title})
		}
	}
	return views
}

func (t mockTx) ListByBuyer(ctx context.Context, buyerID string) ([]domain.PurchaseView, error) {
	return t.views(func(p domain.PurchaseRecord) bool { return p.BuyerID == buyerID }), nil
}

func (t mockTx) ListBySeller(ctx context.Context, sellerID string) ([]domain.PurchaseView, error) {
	return t.views(func(p domain.PurchaseRecord) bool { return p.SellerID == sellerID }), nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	released       []string
	err            error
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}
