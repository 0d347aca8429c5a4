package invoicing

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/retail_ledger/appctx"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func draftWithLines(t *testing.T, store *MockStore) *Session {
	t.Helper()
	s := newTestSession(t, store)
	s.SelectDebtor(debtor())
	if err := s.AddLine(stk001(), 2, decimal.Zero); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := s.AddLine(stk002(), 3, dec("5")); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	return s
}

func TestConfirmRejectsIncompleteDraft(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(s *Session)
		wantErr error
		wantMsg string
	}{
		{
			name:    "no debtor",
			prepare: func(s *Session) { _ = s.AddLine(stk001(), 1, decimal.Zero) },
			wantErr: ErrNoDebtor,
			wantMsg: "select a debtor",
		},
		{
			name:    "no lines",
			prepare: func(s *Session) { s.SelectDebtor(debtor()) },
			wantErr: ErrEmptyInvoice,
			wantMsg: "invoice is empty",
		},
	}
	for _, tc := range cases {
		store := new(MockStore)
		store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)
		s := newTestSession(t, store)
		tc.prepare(s)

		_, err := s.Confirm(context.Background())
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.wantErr)
		}
		assert.Equal(t, tc.wantMsg, s.Message().Text, tc.name)
		assert.False(t, s.Processed(), tc.name)
		store.AssertNotCalled(t, "CommitInvoice", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestConfirmChecksRefreshedStock(t *testing.T) {
	store := new(MockStore)
	store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)
	s := draftWithLines(t, store)
	before := s.Snapshot()

	assert.ElementsMatch(t, []string{"STK001", "STK002"}, s.StockCodes())

	sold := stk002()
	sold.QuantityOnHand = 1
	s.RefreshStock(sold)
	// codes not on the draft are ignored
	s.RefreshStock(models.StockItem{Code: "STK999", QuantityOnHand: 0})

	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "not enough stock for STK002 (Kettle): required 3, available 1", s.Message().Text)
	store.AssertNotCalled(t, "CommitInvoice", mock.Anything, mock.Anything, mock.Anything)

	after := s.Snapshot()
	assert.Equal(t, before.Lines, after.Lines)
	assert.True(t, before.Totals.GrandTotal.Equal(after.Totals.GrandTotal))
}

func TestConfirmCommitFailureKeepsDraft(t *testing.T) {
	store := new(MockStore)
	store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)

	var keys []string
	record := func(args mock.Arguments) {
		keys = append(keys, args.Get(1).(*models.SalesInvoice).ConfirmKey)
	}
	store.On("CommitInvoice", mock.Anything, mock.Anything, mock.Anything).
		Run(record).Return(nil, errors.New("deadlock")).Once()
	store.On("CommitInvoice", mock.Anything, mock.Anything, mock.Anything).
		Run(record).Return(&models.SalesInvoice{InvoiceNumber: "INV-7", DebtorCode: "D001"}, nil).Once()

	s := draftWithLines(t, store)
	before := s.Snapshot()

	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.False(t, s.Processed())
	assert.Equal(t, MessageError, s.Message().Kind)
	assert.Equal(t, before.Lines, s.Lines())

	posted, err := s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	assert.Equal(t, "INV-7", posted.InvoiceNumber)
	if len(keys) != 2 || keys[0] == "" || keys[0] != keys[1] {
		t.Fatalf("retry of unchanged draft should reuse the confirm key, got %v", keys)
	}
	store.AssertExpectations(t)
}

func TestConfirmKeyChangesWithContent(t *testing.T) {
	store := new(MockStore)
	store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)

	var keys []string
	store.On("CommitInvoice", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(*models.SalesInvoice).ConfirmKey)
		}).Return(nil, errors.New("timeout")).Twice()

	s := draftWithLines(t, store)
	_, _ = s.Confirm(context.Background())
	_ = s.AddLine(stk001(), 1, decimal.Zero)
	_, _ = s.Confirm(context.Background())

	if len(keys) != 2 || keys[0] == keys[1] {
		t.Fatalf("edited draft must post under a new key, got %v", keys)
	}
}

func TestConfirmTwiceRejected(t *testing.T) {
	store := new(MockStore)
	store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)
	store.On("CommitInvoice", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.SalesInvoice{InvoiceNumber: "INV-7"}, nil).Once()

	s := draftWithLines(t, store)
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.Equal(t, "invoice INV-7 is already saved, start a new invoice", s.Message().Text)
	store.AssertNumberOfCalls(t, "CommitInvoice", 1)
}

func TestConfirmIgnoresCancellation(t *testing.T) {
	store := new(MockStore)
	store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)
	store.On("CommitInvoice", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			if ctx.Err() != nil {
				t.Errorf("commit saw a cancelled context: %v", ctx.Err())
			}
		}).
		Return(&models.SalesInvoice{InvoiceNumber: "INV-7"}, nil).Once()

	s := draftWithLines(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Confirm(ctx); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	assert.True(t, s.Processed())
}

func TestConfirmBuildsHeaderFromDraft(t *testing.T) {
	store := new(MockStore)
	store.On("NextInvoiceNumber", mock.Anything).Return(int64(7), nil)

	var header *models.SalesInvoice
	var details []models.SalesInvoiceDetail
	store.On("CommitInvoice", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			header = args.Get(1).(*models.SalesInvoice)
			details = args.Get(2).([]models.SalesInvoiceDetail)
		}).
		Return(&models.SalesInvoice{InvoiceNumber: "INV-7"}, nil).Once()

	s := draftWithLines(t, store)
	totals := s.Totals()
	ctx := context.WithValue(context.Background(), appctx.ContextKeyClerkName, "Ma Hla")
	if _, err := s.Confirm(ctx); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	assert.Equal(t, "Ma Hla", header.CreatedBy)
	assert.True(t, header.SubTotal.Equal(totals.SubTotal))
	assert.True(t, header.TaxAmount.Equal(totals.Tax))
	assert.True(t, header.TotalAmount.Equal(totals.GrandTotal))
	// 2*1200 + 3*310.25
	assert.True(t, header.TotalCost.Equal(dec("3330.75")), header.TotalCost.String())

	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(details))
	}
	sum := decimal.Zero
	for i, d := range details {
		assert.Equal(t, i+1, d.LineNo)
		sum = sum.Add(d.LineTotal)
	}
	assert.True(t, sum.Equal(header.SubTotal))
	// 3 * 499.99 = 1499.97, 5% off = 74.9985
	assert.True(t, details[1].DiscountAmount.Equal(dec("74.9985")))
	assert.True(t, details[1].LineTotal.Equal(dec("1424.9715")))
}
