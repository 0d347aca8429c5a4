package invoicing

import (
	"context"
	"io"
	"testing"

	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) NextInvoiceNumber(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CommitInvoice(ctx context.Context, header *models.SalesInvoice, details []models.SalesInvoiceDetail) (*models.SalesInvoice, error) {
	args := m.Called(ctx, header, details)
	inv, _ := args.Get(0).(*models.SalesInvoice)
	return inv, args.Error(1)
}

func (m *MockStore) LookupStock(ctx context.Context, code string) (*models.StockItem, error) {
	args := m.Called(ctx, code)
	item, _ := args.Get(0).(*models.StockItem)
	return item, args.Error(1)
}

func (m *MockStore) LookupDebtor(ctx context.Context, code string) (*models.Debtor, error) {
	args := m.Called(ctx, code)
	debtor, _ := args.Get(0).(*models.Debtor)
	return debtor, args.Error(1)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestSession(t *testing.T, store *MockStore) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), "test", store, quietLogger())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func stk001() models.StockItem {
	return models.StockItem{
		Code:             "STK001",
		Description:      "Rice cooker",
		UnitCost:         decimal.NewFromInt(1200),
		UnitSellingPrice: decimal.NewFromInt(1800),
		QuantityOnHand:   10,
	}
}

func stk002() models.StockItem {
	return models.StockItem{
		Code:             "STK002",
		Description:      "Kettle",
		UnitCost:         decimal.RequireFromString("310.25"),
		UnitSellingPrice: decimal.RequireFromString("499.99"),
		QuantityOnHand:   4,
	}
}

func debtor() models.Debtor {
	return models.Debtor{Code: "D001", Name: "Ko Aung"}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
