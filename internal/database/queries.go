package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

// MaxPageSize caps the limit a client may ask for.
const MaxPageSize = 1000

var ErrNotFound = errors.New("record not found")

// ListFilter carries the query parameters every list endpoint accepts.
type ListFilter struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Vendor    string
	Status    string
	LowStock  bool
	StartDate *time.Time
	EndDate   *time.Time
}

// Scoped restricts a query to one tenant's rows.
func Scoped(ctx context.Context, db *gorm.DB, tenantID string) *gorm.DB {
	return db.WithContext(ctx).Where("tenant_id = ?", tenantID)
}

func like(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}

func (f ListFilter) dateRange(q *gorm.DB) *gorm.DB {
	if f.StartDate != nil {
		q = q.Where("date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", f.EndDate.UTC())
	}
	return q
}

func paginate[T any](q *gorm.DB, f ListFilter, order string) ([]T, models.Pagination, error) {
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Model(new(T)).Count(&total).Error; err != nil {
		return nil, models.Pagination{}, err
	}
	page := models.NewPagination(f.Page, f.Limit, total)

	rows := []T{}
	if err := q.Order(order).Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, models.Pagination{}, err
	}
	return rows, page, nil
}

// FindOne loads one tenant-scoped record by id into dest.
func FindOne(ctx context.Context, db *gorm.DB, tenantID, id string, dest interface{}) error {
	err := Scoped(ctx, db, tenantID).Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- VENDORS ---

func ListVendors(ctx context.Context, db *gorm.DB, tenantID string, f ListFilter) ([]models.Vendor, models.Pagination, error) {
	q := Scoped(ctx, db, tenantID)
	if f.Search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", like(f.Search), like(f.Search))
	}
	vendors, page, err := paginate[models.Vendor](q, f, "name asc")
	if err != nil {
		return nil, page, err
	}
	if err := DecorateVendors(ctx, db, tenantID, vendors); err != nil {
		return nil, page, err
	}
	return vendors, page, nil
}

// DecorateVendors fills the invoice totals of each vendor.
func DecorateVendors(ctx context.Context, db *gorm.DB, tenantID string, vendors []models.Vendor) error {
	if len(vendors) == 0 {
		return nil
	}
	ids := make([]string, len(vendors))
	for i, v := range vendors {
		ids[i] = v.ID
	}

	var invoices []models.Invoice
	if err := Scoped(ctx, db, tenantID).Where("vendor_id IN ?", ids).Find(&invoices).Error; err != nil {
		return err
	}
	totals := ledger.VendorTotals(invoices)
	for i := range vendors {
		ledger.DecorateVendor(&vendors[i], totals[vendors[i].ID])
	}
	return nil
}

// CountVendorInvoices reports how many invoices reference a vendor.
func CountVendorInvoices(ctx context.Context, db *gorm.DB, tenantID, vendorID string) (int64, error) {
	var n int64
	err := Scoped(ctx, db, tenantID).Model(&models.Invoice{}).Where("vendor_id = ?", vendorID).Count(&n).Error
	return n, err
}

// --- INVOICES ---

func ListInvoices(ctx context.Context, db *gorm.DB, tenantID string, f ListFilter) ([]models.Invoice, models.Pagination, error) {
	q := Scoped(ctx, db, tenantID)
	if f.Search != "" {
		q = q.Where("invoice_number LIKE ? OR description LIKE ?", like(f.Search), like(f.Search))
	}
	if f.Vendor != "" {
		q = q.Where("vendor_id = ?", f.Vendor)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = f.dateRange(q)

	invoices, page, err := paginate[models.Invoice](q, f, "date desc")
	if err != nil {
		return nil, page, err
	}
	if err := NameInvoiceVendors(ctx, db, tenantID, invoices); err != nil {
		return nil, page, err
	}
	return invoices, page, nil
}

// NameInvoiceVendors sets VendorName on each invoice.
func NameInvoiceVendors(ctx context.Context, db *gorm.DB, tenantID string, invoices []models.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.VendorID)
	}
	var vendors []models.Vendor
	if err := Scoped(ctx, db, tenantID).Where("id IN ?", ids).Find(&vendors).Error; err != nil {
		return err
	}
	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}
	for i := range invoices {
		invoices[i].VendorName = names[invoices[i].VendorID]
	}
	return nil
}

// InvoiceNumberTaken reports whether another invoice of the tenant already
// uses number. exceptID excludes the invoice being edited.
func InvoiceNumberTaken(ctx context.Context, db *gorm.DB, tenantID, number, exceptID string) (bool, error) {
	var n int64
	q := Scoped(ctx, db, tenantID).Model(&models.Invoice{}).Where("invoice_number = ?", number)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// --- INVENTORY ---

func ListInventory(ctx context.Context, db *gorm.DB, tenantID string, f ListFilter) ([]models.InventoryItem, models.Pagination, error) {
	q := Scoped(ctx, db, tenantID)
	if f.Search != "" {
		q = q.Where("name LIKE ? OR sku LIKE ?", like(f.Search), like(f.Search))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.LowStock {
		q = q.Where("current_stock <= minimum_stock")
	}

	items, page, err := paginate[models.InventoryItem](q, f, "name asc")
	if err != nil {
		return nil, page, err
	}
	for i := range items {
		ledger.DecorateItem(&items[i])
	}
	return items, page, nil
}

// SKUTaken reports whether another item of the tenant already uses sku.
func SKUTaken(ctx context.Context, db *gorm.DB, tenantID, sku, exceptID string) (bool, error) {
	var n int64
	q := Scoped(ctx, db, tenantID).Model(&models.InventoryItem{}).Where("sku = ?", sku)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// AllInventory returns every item of the tenant, decorated.
func AllInventory(ctx context.Context, db *gorm.DB, tenantID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := Scoped(ctx, db, tenantID).Order("category asc, name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		ledger.DecorateItem(&items[i])
	}
	return items, nil
}

// --- SALES ---

func ListSales(ctx context.Context, db *gorm.DB, tenantID string, f ListFilter) ([]models.Sale, models.Pagination, error) {
	q := Scoped(ctx, db, tenantID).Preload("Items")
	if f.Search != "" {
		q = q.Where("customer_name LIKE ?", like(f.Search))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = f.dateRange(q)
	return paginate[models.Sale](q, f, "date desc")
}

// SalesBetween returns every sale of the tenant dated within [start, end].
func SalesBetween(ctx context.Context, db *gorm.DB, tenantID string, start, end time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := Scoped(ctx, db, tenantID).
		Where("date BETWEEN ? AND ?", start.UTC(), end.UTC()).
		Order("date asc").
		Find(&sales).Error
	return sales, err
}

// --- EXPENSES ---

func ListExpenses(ctx context.Context, db *gorm.DB, tenantID string, f ListFilter) ([]models.Expense, models.Pagination, error) {
	q := Scoped(ctx, db, tenantID)
	if f.Search != "" {
		q = q.Where("description LIKE ?", like(f.Search))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	q = f.dateRange(q)
	return paginate[models.Expense](q, f, "date desc")
}

// --- INVOICE RANGE (reports) ---

// InvoicesBetween returns every invoice of the tenant dated within [start, end].
func InvoicesBetween(ctx context.Context, db *gorm.DB, tenantID string, start, end time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := Scoped(ctx, db, tenantID).
		Where("date BETWEEN ? AND ?", start.UTC(), end.UTC()).
		Order("date asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	if err := NameInvoiceVendors(ctx, db, tenantID, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// --- AUDIT ---

// Audit records one mutation. Failures are returned, never swallowed.
func Audit(ctx context.Context, db *gorm.DB, tenantID, userID, action, entity, entityID string) error {
	return db.WithContext(ctx).Create(&models.AuditLog{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}).Error
}
