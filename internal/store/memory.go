package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fc-integration/inventory/types"
)

// Memory holds every repository in process memory. It backs the server
// when no database is configured and the handler tests.
type Memory struct {
	Users     *MemoryUserRepository
	Products  *MemoryProductRepository
	Logs      *MemoryLogRepository
	TwoFactor *MemoryTwoFactorRepository
}

func NewMemory() *Memory {
	return &Memory{
		Users:     &MemoryUserRepository{byID: make(map[string]types.User)},
		Products:  &MemoryProductRepository{},
		Logs:      &MemoryLogRepository{},
		TwoFactor: &MemoryTwoFactorRepository{codes: make(map[string]TwoFactorCode)},
	}
}

type MemoryUserRepository struct {
	mu   sync.RWMutex
	byID map[string]types.User
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, user := range r.byID {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, ErrConflict
		}
	}
	r.byID[user.ID] = user
	return user, nil
}

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []types.Product
	nextID   int
}

func (r *MemoryProductRepository) find(pred func(types.Product) bool) (types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if pred(p) {
			return p, nil
		}
	}
	return types.Product{}, ErrNotFound
}

func (r *MemoryProductRepository) GetByID(_ context.Context, id int) (types.Product, error) {
	return r.find(func(p types.Product) bool { return p.ID == id })
}

func (r *MemoryProductRepository) GetByCode(_ context.Context, code string) (types.Product, error) {
	return r.find(func(p types.Product) bool { return p.Code != nil && *p.Code == code })
}

func (r *MemoryProductRepository) GetByName(_ context.Context, name string) (types.Product, error) {
	name = strings.TrimSpace(name)
	return r.find(func(p types.Product) bool { return strings.EqualFold(p.ProductName, name) })
}

func (r *MemoryProductRepository) codeTaken(code string) bool {
	for _, p := range r.products {
		if p.Code != nil && *p.Code == code {
			return true
		}
	}
	return false
}

func (r *MemoryProductRepository) Create(_ context.Context, p types.Product) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Code != nil && r.codeTaken(*p.Code) {
		return types.Product{}, ErrConflict
	}
	r.nextID++
	p.ID = r.nextID
	r.products = append(r.products, p)
	return p, nil
}

func (r *MemoryProductRepository) AssignCode(_ context.Context, id int, code string) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID != id {
			continue
		}
		if r.products[i].HasCode() || r.codeTaken(code) {
			return types.Product{}, ErrConflict
		}
		r.products[i].Code = &code
		return r.products[i], nil
	}
	return types.Product{}, ErrNotFound
}

func (r *MemoryProductRepository) AdjustQuantity(_ context.Context, id, delta int) (types.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID != id {
			continue
		}
		before := r.products[i].Quantity.Int()
		after := before + delta
		if after < 0 {
			after = 0
		}
		r.products[i].Quantity = types.Quantity(after)
		return r.products[i], before, nil
	}
	return types.Product{}, 0, ErrNotFound
}

func (r *MemoryProductRepository) SetImage(_ context.Context, id int, imageURL string) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == id {
			r.products[i].ImageURL = &imageURL
			return r.products[i], nil
		}
	}
	return types.Product{}, ErrNotFound
}

func (r *MemoryProductRepository) List(_ context.Context) ([]types.Product, error) {
	r.mu.RLock()
	out := append([]types.Product(nil), r.products...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryProductRepository) Models(ctx context.Context, brand, productType string) ([]types.Product, error) {
	all, _ := r.List(ctx)
	out := make([]types.Product, 0)
	for _, p := range all {
		if p.Brand == brand && p.ProductType == productType {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

func (r *MemoryProductRepository) Brands(ctx context.Context) ([]types.BrandSummary, error) {
	all, _ := r.List(ctx)
	index := make(map[string]int)
	out := make([]types.BrandSummary, 0)
	for _, p := range all {
		i, ok := index[p.Brand]
		if !ok {
			i = len(out)
			index[p.Brand] = i
			out = append(out, types.BrandSummary{Brand: p.Brand})
		}
		out[i].ProductCount++
		out[i].TotalQuantity += p.Quantity.Int()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Brand < out[j].Brand })
	return out, nil
}

func (r *MemoryProductRepository) Types(ctx context.Context, brand string) ([]types.TypeSummary, error) {
	all, _ := r.List(ctx)
	index := make(map[string]int)
	out := make([]types.TypeSummary, 0)
	for _, p := range all {
		if p.Brand != brand {
			continue
		}
		i, ok := index[p.ProductType]
		if !ok {
			i = len(out)
			index[p.ProductType] = i
			out = append(out, types.TypeSummary{ProductType: p.ProductType})
		}
		out[i].ProductCount++
		out[i].TotalQuantity += p.Quantity.Int()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductType < out[j].ProductType })
	return out, nil
}

type MemoryLogRepository struct {
	mu      sync.RWMutex
	entries []types.LogEntry
}

func (r *MemoryLogRepository) Append(_ context.Context, entry types.LogEntry) (types.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = len(r.entries) + 1
	entry.LogTime = time.Now().UTC()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *MemoryLogRepository) Latest(_ context.Context, userName string, limit int) ([]types.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.LogEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if e.UserName != nil && *e.UserName == userName {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every entry in insertion order.
func (r *MemoryLogRepository) All() []types.LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.LogEntry(nil), r.entries...)
}

type MemoryTwoFactorRepository struct {
	mu    sync.Mutex
	codes map[string]TwoFactorCode
}

func (r *MemoryTwoFactorRepository) Save(_ context.Context, code TwoFactorCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code.Email = strings.ToLower(code.Email)
	r.codes[code.Email] = code
	return nil
}

func (r *MemoryTwoFactorRepository) Get(_ context.Context, email string) (TwoFactorCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[strings.ToLower(email)]
	if !ok {
		return TwoFactorCode{}, ErrNotFound
	}
	return code, nil
}

func (r *MemoryTwoFactorRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, strings.ToLower(email))
	return nil
}
