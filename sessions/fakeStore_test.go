package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// memStore keeps stock, debtors and posted invoices in memory.
type memStore struct {
	mu        sync.Mutex
	stock     map[string]models.StockItem
	debtors   map[string]models.Debtor
	posted    []*models.SalesInvoice
	commitErr error
}

func newMemStore() *memStore {
	return &memStore{
		stock: map[string]models.StockItem{
			"STK001": {
				Code:             "STK001",
				Description:      "Rice cooker",
				UnitCost:         decimal.NewFromInt(1200),
				UnitSellingPrice: decimal.NewFromInt(1800),
				QuantityOnHand:   10,
			},
		},
		debtors: map[string]models.Debtor{
			"D001": {Code: "D001", Name: "Ko Aung"},
		},
	}
}

func (m *memStore) NextInvoiceNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.posted) + 1), nil
}

func (m *memStore) CommitInvoice(ctx context.Context, header *models.SalesInvoice, details []models.SalesInvoiceDetail) (*models.SalesInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	for _, d := range details {
		item := m.stock[d.StockCode]
		if item.QuantityOnHand < d.Qty {
			return nil, errors.New("insufficient stock on commit")
		}
	}
	for _, d := range details {
		item := m.stock[d.StockCode]
		item.QuantityOnHand -= d.Qty
		m.stock[d.StockCode] = item
	}
	inv := *header
	inv.SequenceNo = int64(len(m.posted) + 1)
	inv.InvoiceNumber = fmt.Sprintf("INV-%d", inv.SequenceNo)
	inv.Details = details
	m.posted = append(m.posted, &inv)
	return &inv, nil
}

func (m *memStore) LookupStock(ctx context.Context, code string) (*models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.stock[code]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &item, nil
}

func (m *memStore) LookupDebtor(ctx context.Context, code string) (*models.Debtor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debtors[code]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return &d, nil
}

func (m *memStore) setOnHand(code string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.stock[code]
	item.QuantityOnHand = qty
	m.stock[code] = item
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
