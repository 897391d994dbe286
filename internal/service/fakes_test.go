package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/notifier"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. A single mutex per fake keeps the conditional
// updates atomic, mirroring what the SQL conditional UPDATEs guarantee.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeConsignmentRepo struct {
	mu           sync.Mutex
	consignments map[uuid.UUID]*model.Consignment
	lines        map[uuid.UUID]*model.ConsignmentLine
}

func newFakeConsignmentRepo() *fakeConsignmentRepo {
	return &fakeConsignmentRepo{
		consignments: make(map[uuid.UUID]*model.Consignment),
		lines:        make(map[uuid.UUID]*model.ConsignmentLine),
	}
}

func (f *fakeConsignmentRepo) Create(_ context.Context, c *model.Consignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	f.consignments[c.ID] = &cp
	return nil
}

func (f *fakeConsignmentRepo) CreateLine(_ context.Context, l *model.ConsignmentLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	f.lines[l.ID] = &cp
	return nil
}

func (f *fakeConsignmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Consignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConsignmentRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Consignment, error) {
	c, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if l.ConsignmentID == id {
			c.Lines = append(c.Lines, *l)
		}
	}
	return c, nil
}

func (f *fakeConsignmentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Consignment, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeConsignmentRepo) FindLineByID(_ context.Context, id uuid.UUID) (*model.ConsignmentLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeConsignmentRepo) List(context.Context, string, string, int, int) ([]model.Consignment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Consignment
	for _, c := range f.consignments {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeConsignmentRepo) OutstandingPieces(_ context.Context, consignmentID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, l := range f.lines {
		if l.ConsignmentID == consignmentID {
			total += l.PiecesRemaining
		}
	}
	return total, nil
}

func (f *fakeConsignmentRepo) CountActiveByOrg(_ context.Context, orgID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.consignments {
		if c.Status == model.ConsignmentActive && (c.DealerOrgID == orgID || c.ManufacturerOrgID == orgID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeConsignmentRepo) UpdateStatusWhere(_ context.Context, id uuid.UUID, from, to string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consignments[id]
	if !ok || c.Status != from {
		return 0, nil
	}
	c.Status = to
	return 1, nil
}

func (f *fakeConsignmentRepo) SetEndDate(_ context.Context, id uuid.UUID, endDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consignments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.EndDate = &endDate
	return nil
}

func (f *fakeConsignmentRepo) DecrementRemaining(_ context.Context, lineID uuid.UUID, quantity int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.PiecesRemaining < quantity {
		return 0, nil
	}
	l.PiecesRemaining -= quantity
	return 1, nil
}

func (f *fakeConsignmentRepo) RestoreRemaining(_ context.Context, lineID uuid.UUID, quantity int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.PiecesRemaining+quantity > l.PiecesAssigned {
		return 0, nil
	}
	l.PiecesRemaining += quantity
	return 1, nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
	lines *fakeConsignmentRepo
}

func newFakeSaleRepo(lines *fakeConsignmentRepo) *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*model.Sale), lines: lines}
}

func (f *fakeSaleRepo) Create(_ context.Context, s *model.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	f.sales[s.ID] = &cp
	return nil
}

func (f *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSaleRepo) FindByIDWithLine(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	s, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.lines != nil {
		if line, lineErr := f.lines.FindLineByID(ctx, s.ConsignmentLineID); lineErr == nil {
			s.ConsignmentLine = line
		}
	}
	return s, nil
}

func (f *fakeSaleRepo) List(_ context.Context, filter repository.SaleListFilter) ([]model.Sale, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Sale
	for _, s := range f.sales {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSaleRepo) UpdateStatusWhere(_ context.Context, id uuid.UUID, from, to string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok || s.Status != from {
		return 0, nil
	}
	s.Status = to
	return 1, nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*model.Invoice
	invLines map[uuid.UUID]*model.InvoiceLine
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		invLines: make(map[uuid.UUID]*model.InvoiceLine),
	}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) CreateLine(_ context.Context, l *model.InvoiceLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	for _, existing := range f.invLines {
		if existing.SaleID == l.SaleID {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *l
	f.invLines[l.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.invLines {
		if l.InvoiceID == id {
			inv.Lines = append(inv.Lines, *l)
		}
	}
	return inv, nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Invoice
	for _, inv := range f.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeInvoiceRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, inv := range f.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			count++
		}
	}
	return count, nil
}

func (f *fakeInvoiceRepo) UpdateStatusWhere(_ context.Context, id uuid.UUID, from, to string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || inv.Status != from {
		return 0, nil
	}
	inv.Status = to
	return 1, nil
}

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs map[uuid.UUID]*model.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*model.Organization)}
}

func (f *fakeOrgRepo) Create(_ context.Context, o *model.Organization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	f.orgs[o.ID] = &cp
	return nil
}

func (f *fakeOrgRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Name = name
	return nil
}

func (f *fakeOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrgRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orgs, id)
	return nil
}

func (f *fakeOrgRepo) List(context.Context, string, int, int) ([]model.Organization, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Organization
	for _, o := range f.orgs {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

type fakeCatalogRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.CatalogItem
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{items: make(map[uuid.UUID]*model.CatalogItem)}
}

func (f *fakeCatalogRepo) Create(_ context.Context, i *model.CatalogItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	cp := *i
	f.items[i.ID] = &cp
	return nil
}

func (f *fakeCatalogRepo) Update(_ context.Context, i *model.CatalogItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[i.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *i
	f.items[i.ID] = &cp
	return nil
}

func (f *fakeCatalogRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *fakeCatalogRepo) FindByItemNumber(_ context.Context, itemNumber string) (*model.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.items {
		if i.ItemNumber == itemNumber {
			cp := *i
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) List(context.Context, string, int, int) ([]model.CatalogItem, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CatalogItem
	for _, i := range f.items {
		out = append(out, *i)
	}
	return out, int64(len(out)), nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(context.Context, string, int, int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog(nil), f.entries...), int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event notifier.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// Shared test actors
var (
	manufacturerActor = model.Actor{UserID: uuid.New(), Role: model.RoleManufacturerAdmin}
	dealerActor       = model.Actor{UserID: uuid.New(), Role: model.RoleClientSalesRep}
)
