package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"gorm.io/gorm"
)

// memStore is an in-memory ledger shared by the mock repositories
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	incomes  map[uint]models.IncomeEntry
	expenses map[uint]models.ExpenseEntry
	receipts map[uint]models.Receipt
	orders   map[uint]models.Order
	sessions map[uint]int
	stock    map[uint]int
	audits   []models.AuditLog
	summary  map[string]models.FinancialSummary

	// failures injected by tests
	failExpenseCreateAt int
	expenseCreates      int
	failStock           error
	failFind            error
}

func newMemStore() *memStore {
	return &memStore{
		incomes:  make(map[uint]models.IncomeEntry),
		expenses: make(map[uint]models.ExpenseEntry),
		receipts: make(map[uint]models.Receipt),
		orders:   make(map[uint]models.Order),
		sessions: make(map[uint]int),
		stock:    make(map[uint]int),
		summary:  make(map[string]models.FinancialSummary),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memSnapshot struct {
	incomes  map[uint]models.IncomeEntry
	expenses map[uint]models.ExpenseEntry
	receipts map[uint]models.Receipt
	orders   map[uint]models.Order
	sessions map[uint]int
	stock    map[uint]int
	audits   []models.AuditLog
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		incomes:  copyMap(s.incomes),
		expenses: copyMap(s.expenses),
		receipts: copyMap(s.receipts),
		orders:   copyMap(s.orders),
		sessions: copyMap(s.sessions),
		stock:    copyMap(s.stock),
		audits:   append([]models.AuditLog(nil), s.audits...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes, s.expenses, s.receipts = snap.incomes, snap.expenses, snap.receipts
	s.orders, s.sessions, s.stock, s.audits = snap.orders, snap.sessions, snap.stock, snap.audits
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Income:  &mockIncomeRepo{store: s},
		Expense: &mockExpenseRepo{store: s},
		Receipt: &mockReceiptRepo{store: s},
		Order:   &mockOrderRepo{store: s},
		Summary: &mockSummaryRepo{store: s},
		Audit:   &mockAuditRepo{store: s},
	}
}

func (s *memStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.audits))
	for i, a := range s.audits {
		out[i] = a.Entity + ":" + a.Action
	}
	return out
}

// mockUoW rolls the store back to its state before fn when fn fails
type mockUoW struct {
	store *memStore
}

func (u *mockUoW) Do(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	snap := u.store.snapshot()
	if err := fn(u.store.repos()); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type mockIncomeRepo struct {
	repository.IncomeRepository
	store *memStore
}

func (m *mockIncomeRepo) FindByID(ctx context.Context, id uint) (*models.IncomeEntry, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	e, ok := m.store.incomes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (m *mockIncomeRepo) FindByOrderID(ctx context.Context, orderID uint) (*models.IncomeEntry, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, e := range m.store.incomes {
		if e.OrderID != nil && *e.OrderID == orderID {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIncomeRepo) Create(ctx context.Context, entry *models.IncomeEntry) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	entry.ID = m.store.id()
	m.store.incomes[entry.ID] = *entry
	return nil
}

func (m *mockIncomeRepo) Update(ctx context.Context, entry *models.IncomeEntry) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.incomes[entry.ID] = *entry
	return nil
}

func (m *mockIncomeRepo) Delete(ctx context.Context, id uint) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.incomes, id)
	return nil
}

func (m *mockIncomeRepo) FindInRange(ctx context.Context, start, end time.Time, statuses []models.IncomeStatus) ([]models.IncomeEntry, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failFind != nil {
		return nil, m.store.failFind
	}
	var out []models.IncomeEntry
	for _, e := range m.store.incomes {
		if e.IncomeDate.Before(start) || e.IncomeDate.After(end) {
			continue
		}
		if len(statuses) > 0 && !containsValue(statuses, e.Status) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockExpenseRepo struct {
	repository.ExpenseRepository
	store *memStore
}

func (m *mockExpenseRepo) FindByID(ctx context.Context, id uint) (*models.ExpenseEntry, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	e, ok := m.store.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (m *mockExpenseRepo) FindByParent(ctx context.Context, parentID uint) ([]models.ExpenseEntry, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []models.ExpenseEntry
	for _, e := range m.store.expenses {
		if e.ParentExpenseID != nil && *e.ParentExpenseID == parentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExpenseRepo) Create(ctx context.Context, entry *models.ExpenseEntry) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.expenseCreates++
	if m.store.failExpenseCreateAt > 0 && m.store.expenseCreates == m.store.failExpenseCreateAt {
		return errors.New("insert failed")
	}
	entry.ID = m.store.id()
	m.store.expenses[entry.ID] = *entry
	return nil
}

func (m *mockExpenseRepo) Update(ctx context.Context, entry *models.ExpenseEntry) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.expenses[entry.ID] = *entry
	return nil
}

func (m *mockExpenseRepo) Delete(ctx context.Context, id uint) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.expenses, id)
	return nil
}

func (m *mockExpenseRepo) DeleteByParent(ctx context.Context, parentID uint) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for id, e := range m.store.expenses {
		if e.ParentExpenseID != nil && *e.ParentExpenseID == parentID {
			delete(m.store.expenses, id)
		}
	}
	return nil
}

func (m *mockExpenseRepo) FindInRange(ctx context.Context, start, end time.Time, statuses []models.ExpenseStatus) ([]models.ExpenseEntry, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failFind != nil {
		return nil, m.store.failFind
	}
	var out []models.ExpenseEntry
	for _, e := range m.store.expenses {
		if e.ExpenseDate.Before(start) || e.ExpenseDate.After(end) {
			continue
		}
		if len(statuses) > 0 && !containsValue(statuses, e.Status) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockReceiptRepo struct {
	repository.ReceiptRepository
	store *memStore
}

func (m *mockReceiptRepo) FindByID(ctx context.Context, id uint) (*models.Receipt, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (m *mockReceiptRepo) Create(ctx context.Context, receipt *models.Receipt) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, r := range m.store.receipts {
		if r.ReceiptNumber == receipt.ReceiptNumber {
			return repository.ErrDuplicateReceiptNumber
		}
	}
	receipt.ID = m.store.id()
	m.store.receipts[receipt.ID] = *receipt
	return nil
}

func (m *mockReceiptRepo) FindByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, r := range m.store.receipts {
		if r.ReceiptNumber == number {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReceiptRepo) FindByIncome(ctx context.Context, incomeID uint) ([]models.Receipt, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []models.Receipt
	for _, r := range m.store.receipts {
		if r.IncomeID != nil && *r.IncomeID == incomeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiptNumber < out[j].ReceiptNumber })
	return out, nil
}

type mockOrderRepo struct {
	repository.OrderRepository
	store *memStore
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	o, ok := m.store.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (m *mockOrderRepo) Update(ctx context.Context, order *models.Order) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepo) AdjustSessions(ctx context.Context, userID uint, delta int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cur, ok := m.store.sessions[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.store.sessions[userID] = max(cur+delta, 0)
	return nil
}

func (m *mockOrderRepo) AdjustStock(ctx context.Context, productID uint, delta int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failStock != nil {
		return m.store.failStock
	}
	cur, ok := m.store.stock[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.store.stock[productID] = cur + delta
	return nil
}

type mockSummaryRepo struct {
	repository.SummaryRepository
	store *memStore
}

func summaryKey(periodType models.PeriodType, start, end time.Time) string {
	return string(periodType) + "|" + start.String() + "|" + end.String()
}

func (m *mockSummaryRepo) Upsert(ctx context.Context, summary *models.FinancialSummary) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.summary[summaryKey(summary.PeriodType, summary.PeriodStart, summary.PeriodEnd)] = *summary
	return nil
}

func (m *mockSummaryRepo) Find(ctx context.Context, periodType models.PeriodType, start, end time.Time) (*models.FinancialSummary, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s, ok := m.store.summary[summaryKey(periodType, start, end)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (m *mockSummaryRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var n int64
	for k, s := range m.store.summary {
		if s.ExpiresAt.Before(now) {
			delete(m.store.summary, k)
			n++
		}
	}
	return n, nil
}

type mockAuditRepo struct {
	repository.AuditRepository
	store *memStore
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	entry.ID = m.store.id()
	m.store.audits = append(m.store.audits, *entry)
	return nil
}

// mockCounter is a per-key atomic counter
type mockCounter struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func newMockCounter() *mockCounter {
	return &mockCounter{values: make(map[string]int64)}
}

func (c *mockCounter) Next(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.values[key]++
	return c.values[key], nil
}

// mockRenderer records the HTML it was asked to render
type mockRenderer struct {
	html []byte
	err  error
}

func (r *mockRenderer) RenderPDF(html []byte) ([]byte, error) {
	r.html = html
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 mock"), nil
}

func containsValue[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
