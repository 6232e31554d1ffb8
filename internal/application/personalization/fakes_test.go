package personalization

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// fakeProducts is an in-memory catalog.ProductReader
type fakeProducts struct {
	products map[uuid.UUID]*catalog.ProductTemplate
}

func newFakeProducts(products ...*catalog.ProductTemplate) *fakeProducts {
	f := &fakeProducts{products: make(map[uuid.UUID]*catalog.ProductTemplate)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.ProductTemplate, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Product not found")
	}
	return p, nil
}

func (f *fakeProducts) FindVariant(_ context.Context, variantID uuid.UUID) (*catalog.ProductVariant, error) {
	for _, p := range f.products {
		if v := p.FindVariant(variantID); v != nil {
			return v, nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage("Product variant not found")
}

// fakeAreas is an in-memory catalog.DesignAreaReader
type fakeAreas struct {
	areas []catalog.DesignArea
}

func (f *fakeAreas) FindByID(_ context.Context, id uuid.UUID) (*catalog.DesignArea, error) {
	for i := range f.areas {
		if f.areas[i].ID == id {
			a := f.areas[i]
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage("Design area not found")
}

func (f *fakeAreas) FindByVariant(_ context.Context, variantID uuid.UUID) ([]catalog.DesignArea, error) {
	out := []catalog.DesignArea{}
	for _, a := range f.areas {
		if a.VariantID == variantID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// fakeCarts is an in-memory cart.Repository. Line inserts fail while failLines is set.
type fakeCarts struct {
	mu        sync.Mutex
	carts     map[uuid.UUID]*cart.Cart
	failLines bool
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: make(map[uuid.UUID]*cart.Cart)}
}

func (f *fakeCarts) FindBySession(_ context.Context, sessionID string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.carts {
		if c.SessionID == sessionID {
			cp := *c
			cp.Lines = append([]cart.Line(nil), c.Lines...)
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage("Cart not found")
}

func (f *fakeCarts) FindByID(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[id]
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Cart not found")
	}
	cp := *c
	cp.Lines = append([]cart.Line(nil), c.Lines...)
	return &cp, nil
}

func (f *fakeCarts) FindLine(_ context.Context, lineID uuid.UUID) (*cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.carts {
		for _, l := range c.Lines {
			if l.ID == lineID {
				line := l
				return &line, nil
			}
		}
	}
	return nil, shared.ErrNotFound.WithMessage("Cart line not found")
}

func (f *fakeCarts) Create(_ context.Context, c *cart.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLines && len(c.Lines) > 0 {
		return errors.New("insert cart line failed")
	}
	cp := *c
	cp.Lines = append([]cart.Line(nil), c.Lines...)
	f.carts[c.ID] = &cp
	return nil
}

func (f *fakeCarts) CreateLine(_ context.Context, line *cart.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLines {
		return errors.New("insert cart line failed")
	}
	c, ok := f.carts[line.CartID]
	if !ok {
		return errors.New("cart does not exist")
	}
	c.Lines = append(c.Lines, *line)
	return nil
}

func (f *fakeCarts) UpdateLine(_ context.Context, line *cart.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[line.CartID]
	if !ok {
		return shared.ErrNotFound.WithMessage("Cart line not found")
	}
	for i := range c.Lines {
		if c.Lines[i].ID == line.ID {
			c.Lines[i] = *line
			return nil
		}
	}
	return shared.ErrNotFound.WithMessage("Cart line not found")
}

func (f *fakeCarts) DeleteLine(_ context.Context, lineID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.carts {
		for i := range c.Lines {
			if c.Lines[i].ID == lineID {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
				return nil
			}
		}
	}
	return shared.ErrNotFound.WithMessage("Cart line not found")
}

// fakeRecords is an in-memory personalization.Repository. Inserts for area
// keys listed in failAreas fail.
type fakeRecords struct {
	mu        sync.Mutex
	records   []personalization.Personalization
	failAreas map[string]bool
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{failAreas: make(map[string]bool)}
}

func (f *fakeRecords) FindByID(_ context.Context, id uuid.UUID) (*personalization.Personalization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage("Personalization not found")
}

func (f *fakeRecords) FindByLine(_ context.Context, lineID uuid.UUID) ([]personalization.Personalization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []personalization.Personalization{}
	for _, r := range f.records {
		if r.LineID == lineID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) Create(_ context.Context, record *personalization.Personalization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAreas[record.AreaKey] {
		return errors.New("insert failed")
	}
	if hasAreaKey(f.records, record) {
		return errors.New("duplicate area key for line")
	}
	f.records = append(f.records, *record)
	return nil
}

// hasAreaKey mirrors the unique (line_id, area_key) index
func hasAreaKey(records []personalization.Personalization, record *personalization.Personalization) bool {
	for _, r := range records {
		if r.LineID == record.LineID && r.AreaKey == record.AreaKey {
			return true
		}
	}
	return false
}

func (f *fakeRecords) ReplaceForLine(_ context.Context, lineID uuid.UUID, records []*personalization.Personalization, onError personalization.SaveErrorFunc) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.records[:0:0]
	for _, r := range f.records {
		if r.LineID != lineID {
			kept = append(kept, r)
		}
	}
	stored := []uuid.UUID{}
	for _, rec := range records {
		if f.failAreas[rec.AreaKey] || hasAreaKey(kept, rec) {
			if onError != nil {
				onError(rec, errors.New("insert failed"))
			}
			continue
		}
		kept = append(kept, *rec)
		stored = append(stored, rec.ID)
	}
	f.records = kept
	return stored, nil
}

func (f *fakeRecords) DeleteByLine(_ context.Context, lineID uuid.UUID) error {
	_, err := f.ReplaceForLine(context.Background(), lineID, nil, nil)
	return err
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// MockCartBridge is a mock implementation of CartBridge
type MockCartBridge struct {
	mock.Mock
}

func (m *MockCartBridge) AddToCart(ctx context.Context, sessionID string, variantID uuid.UUID, quantity int) (*cart.Line, error) {
	args := m.Called(ctx, sessionID, variantID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCartBridge) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*cart.Line, error) {
	args := m.Called(ctx, lineID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCartBridge) CartQuantity(ctx context.Context, cartID uuid.UUID) (int, error) {
	args := m.Called(ctx, cartID)
	return args.Int(0), args.Error(1)
}

// stubLocker reports every line as held by another request
type stubLocker struct {
	held bool
	err  error
}

func (l *stubLocker) Acquire(_ context.Context, _ uuid.UUID) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	return func() {}, !l.held, nil
}

type stubThumbnailer struct {
	err error
}

func (t *stubThumbnailer) Thumbnail(data []byte, width int) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return []byte("thumb"), nil
}
