package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientStockOnCommit = errors.New("stock on hand changed before the invoice was saved")

var ErrInvalidDetailQuantity = errors.New("invoice detail quantity must be positive")

// InvoiceStore persists the ledger on MySQL through gorm.
type InvoiceStore struct {
	db *gorm.DB

	// OnCommitted runs after a new invoice is committed. Retries that
	// return an already posted invoice do not trigger it.
	OnCommitted func(ctx context.Context, invoice *SalesInvoice)
}

func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

func (s *InvoiceStore) DB() *gorm.DB {
	return s.db
}

// NextInvoiceNumber is the display number of the next invoice.
// The committed number is allocated under the posting lock and may differ.
func (s *InvoiceStore) NextInvoiceNumber(ctx context.Context) (int64, error) {
	var maxSeq *int64
	if err := s.db.WithContext(ctx).Model(&SalesInvoice{}).Select("max(sequence_no)").Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return utils.DereferencePtr(maxSeq) + 1, nil
}

func (s *InvoiceStore) LookupStock(ctx context.Context, code string) (*StockItem, error) {
	logger := config.GetLogger()
	cached, err := utils.RetrieveRedis[StockItem](ctx, code)
	if err != nil {
		config.LogError(logger, "invoiceStore.go", "LookupStock", "RetrieveRedis", code, err)
	} else if cached != nil {
		return cached, nil
	}

	var item StockItem
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := utils.StoreRedis(ctx, &item, item.Code); err != nil {
		config.LogError(logger, "invoiceStore.go", "LookupStock", "StoreRedis", code, err)
	}
	return &item, nil
}

func (s *InvoiceStore) LookupDebtor(ctx context.Context, code string) (*Debtor, error) {
	logger := config.GetLogger()
	cached, err := utils.RetrieveRedis[Debtor](ctx, code)
	if err != nil {
		config.LogError(logger, "invoiceStore.go", "LookupDebtor", "RetrieveRedis", code, err)
	} else if cached != nil {
		return cached, nil
	}

	var debtor Debtor
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&debtor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := utils.StoreRedis(ctx, &debtor, debtor.Code); err != nil {
		config.LogError(logger, "invoiceStore.go", "LookupDebtor", "StoreRedis", code, err)
	}
	return &debtor, nil
}

// CommitInvoice posts header and details as one unit of work: number
// allocation, stock decrement, stock history, debtor balance and debtor
// history either all commit or none do.
//
// A header whose ConfirmKey was already posted returns the stored invoice.
func (s *InvoiceStore) CommitInvoice(ctx context.Context, header *SalesInvoice, details []SalesInvoiceDetail) (*SalesInvoice, error) {
	if header == nil {
		return nil, errors.New("invoice header is required")
	}
	if len(details) == 0 {
		return nil, errors.New("invoice has no details")
	}
	if !sumLineTotals(details).Equal(header.SubTotal) {
		return nil, errors.New("invoice subtotal does not match its lines")
	}
	required, err := requiredQuantities(details)
	if err != nil {
		return nil, err
	}
	if header.ConfirmKey == "" {
		header.ConfirmKey = uuid.NewString()
	}
	span := trace.SpanFromContext(ctx)

	if existing, err := s.findByConfirmKey(ctx, header.ConfirmKey); err != nil {
		return nil, err
	} else if existing != nil {
		span.AddEvent("invoice already posted")
		return existing, nil
	}

	var posted *SalesInvoice
	err = s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquireInvoicePostingLock(conn); err != nil {
			return err
		}
		defer ReleaseInvoicePostingLock(conn)

		var err error
		posted, err = postInvoice(conn, header, details, required)
		return err
	})
	if err != nil {
		if IsDuplicateKeyErr(err) {
			// a concurrent retry with the same key won the race
			if existing, ferr := s.findByConfirmKey(ctx, header.ConfirmKey); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		config.LogError(config.GetLogger(), "invoiceStore.go", "CommitInvoice", "postInvoice", header.DebtorCode, err)
		return nil, err
	}
	span.AddEvent("invoice posted")

	s.invalidate(ctx, posted)
	if s.OnCommitted != nil {
		s.OnCommitted(ctx, posted)
	}
	return posted, nil
}

func (s *InvoiceStore) findByConfirmKey(ctx context.Context, key string) (*SalesInvoice, error) {
	var existing SalesInvoice
	err := s.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("confirm_key = ?", key).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// requiredQuantities totals detail quantities per stock code. Every detail
// must take at least one unit.
func requiredQuantities(details []SalesInvoiceDetail) (map[string]int, error) {
	required := make(map[string]int)
	for _, d := range details {
		if d.Qty <= 0 {
			return nil, fmt.Errorf("%w: line %d of %s has quantity %d", ErrInvalidDetailQuantity, d.LineNo, d.StockCode, d.Qty)
		}
		required[d.StockCode] = utils.AddQuantities(required[d.StockCode], d.Qty)
	}
	return required, nil
}

func postInvoice(conn *gorm.DB, header *SalesInvoice, details []SalesInvoiceDetail, required map[string]int) (*SalesInvoice, error) {
	tx := conn.Begin()
	// always rollback on early-return or panic to avoid leaking DB locks
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	var maxSeq *int64
	if err := tx.Model(&SalesInvoice{}).Select("max(sequence_no)").Scan(&maxSeq).Error; err != nil {
		return nil, err
	}
	seq := utils.DereferencePtr(maxSeq) + 1

	// Lock stock rows in code order so concurrent invoices cannot deadlock.
	codes := make([]string, 0, len(required))
	for code := range required {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	onHand := make(map[string]int, len(codes))
	for _, code := range codes {
		var item StockItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("stock %s: %w", code, utils.ErrorRecordNotFound)
			}
			return nil, err
		}
		if item.QuantityOnHand < required[code] {
			return nil, fmt.Errorf("%w: %s needs %d, %d on hand", ErrInsufficientStockOnCommit, code, required[code], item.QuantityOnHand)
		}
		if err := tx.Model(&StockItem{}).Where("id = ?", item.ID).
			Update("quantity_on_hand", gorm.Expr("quantity_on_hand - ?", required[code])).Error; err != nil {
			return nil, err
		}
		onHand[code] = item.QuantityOnHand
	}

	var debtor Debtor
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", header.DebtorCode).First(&debtor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("debtor %s: %w", header.DebtorCode, utils.ErrorRecordNotFound)
		}
		return nil, err
	}

	header.ID = 0
	header.SequenceNo = seq
	header.InvoiceNumber = config.InvoicePrefix() + strconv.FormatInt(seq, 10)
	if header.InvoiceDate.IsZero() {
		header.InvoiceDate = time.Now()
	}
	header.Details = make([]SalesInvoiceDetail, len(details))
	copy(header.Details, details)
	for i := range header.Details {
		header.Details[i].ID = 0
		header.Details[i].SalesInvoiceId = 0
	}
	if err := tx.Create(header).Error; err != nil {
		return nil, err
	}

	for _, d := range header.Details {
		onHand[d.StockCode] -= d.Qty
		history := StockHistory{
			StockCode:         d.StockCode,
			StockDate:         header.InvoiceDate,
			Qty:               -d.Qty,
			ClosingQty:        onHand[d.StockCode],
			Description:       "Invoice " + header.InvoiceNumber,
			ReferenceType:     StockReferenceTypeInvoice,
			ReferenceID:       header.ID,
			ReferenceDetailID: d.ID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return nil, err
		}
	}

	newBalance := debtor.Balance.Add(header.TotalAmount)
	if err := tx.Model(&Debtor{}).Where("id = ?", debtor.ID).Update("balance", newBalance).Error; err != nil {
		return nil, err
	}
	debtorTx := DebtorTransaction{
		DebtorCode:      debtor.Code,
		TransactionDate: header.InvoiceDate,
		ReferenceType:   DebtorReferenceInvoice,
		ReferenceId:     header.ID,
		ReferenceNumber: header.InvoiceNumber,
		Amount:          header.TotalAmount,
		RunningBalance:  newBalance,
	}
	if err := tx.Create(&debtorTx).Error; err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return header, nil
}

// invalidate drops cached master records the commit changed.
func (s *InvoiceStore) invalidate(ctx context.Context, invoice *SalesInvoice) {
	logger := config.GetLogger()
	codes := make([]string, 0, len(invoice.Details))
	for _, d := range invoice.Details {
		codes = append(codes, d.StockCode)
	}
	if err := utils.RemoveRedisItem[StockItem](ctx, utils.UniqueSlice(codes)...); err != nil {
		config.LogError(logger, "invoiceStore.go", "invalidate", "RemoveRedisItem StockItem", codes, err)
	}
	if err := utils.RemoveRedisItem[Debtor](ctx, invoice.DebtorCode); err != nil {
		config.LogError(logger, "invoiceStore.go", "invalidate", "RemoveRedisItem Debtor", invoice.DebtorCode, err)
	}
}

func (s *InvoiceStore) GetSalesInvoice(ctx context.Context, invoiceNumber string) (*SalesInvoice, error) {
	var invoice SalesInvoice
	err := s.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListSalesInvoices returns invoices dated in [from, to), newest first.
func (s *InvoiceStore) ListSalesInvoices(ctx context.Context, from, to time.Time) ([]*SalesInvoice, error) {
	var invoices []*SalesInvoice
	err := s.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Order("sequence_no DESC").
		Find(&invoices).Error
	return invoices, err
}

func sumLineTotals(details []SalesInvoiceDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.LineTotal)
	}
	return total
}
