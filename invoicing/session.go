package invoicing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Snapshot is a copy of the session state, safe to hold after the call returns.
type Snapshot struct {
	ID                string               `json:"id"`
	Debtor            *models.Debtor       `json:"debtor"`
	Lines             []DraftLine          `json:"lines"`
	Totals            Totals               `json:"totals"`
	NextInvoiceNumber int64                `json:"next_invoice_number"`
	Message           *Message             `json:"message"`
	Processed         bool                 `json:"processed"`
	Posted            *models.SalesInvoice `json:"posted,omitempty"`
}

// Session is one invoice being built at a till. Operations run one at a
// time; listeners registered with OnChange see the state after each one.
type Session struct {
	id     string
	store  Store
	logger *logrus.Entry
	now    func() time.Time

	mu         sync.Mutex
	debtor     *models.Debtor
	lines      []*DraftLine
	stock      map[string]models.StockItem
	totals     Totals
	nextNumber int64
	message    *Message
	processed  bool
	posted     *models.SalesInvoice
	confirmKey string
	lastLineID int

	listenersMu sync.Mutex
	listeners   []func(Snapshot)
}

// NewSession starts an empty invoice and fetches the number to display.
// An empty id gets a random one.
func NewSession(ctx context.Context, id string, store Store, logger *logrus.Logger) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		id:     id,
		store:  store,
		logger: logger.WithField("session", id),
		now:    time.Now,
	}
	s.mu.Lock()
	err := s.startNewInvoice(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// OnChange registers fn to run after every operation, outside the session lock.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// apply runs op under the session lock and notifies listeners afterwards.
func (s *Session) apply(op func() error) error {
	s.mu.Lock()
	err := op()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.listenersMu.Lock()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
	return err
}

func (s *Session) SelectDebtor(debtor models.Debtor) {
	_ = s.apply(func() error {
		s.debtor = &debtor
		s.message = nil
		return nil
	})
}

func (s *Session) AddLine(stock models.StockItem, qty int, discountPercent decimal.Decimal) error {
	return s.apply(func() error { return s.addLine(stock, qty, discountPercent) })
}

// UpdateLine sets quantity and discount of the line with lineID. A quantity
// of zero or less removes the line.
func (s *Session) UpdateLine(lineID int, qty int, discountPercent decimal.Decimal) error {
	return s.apply(func() error { return s.updateLine(lineID, qty, discountPercent) })
}

// RemoveLine drops the line with lineID. Unknown ids are ignored.
func (s *Session) RemoveLine(lineID int) {
	_ = s.apply(func() error {
		if target := s.findLine(lineID); target != nil {
			s.removeLine(target)
			s.linesChanged()
		}
		s.message = nil
		return nil
	})
}

// RefreshStock replaces the on-hand snapshot UpdateLine and Confirm validate against.
// Codes not on the draft are ignored; line prices are kept.
func (s *Session) RefreshStock(stock models.StockItem) {
	_ = s.apply(func() error {
		if _, ok := s.stock[stock.Code]; ok {
			s.stock[stock.Code] = stock
		}
		return nil
	})
}

// StockCodes lists the distinct stock codes on the draft in line order.
func (s *Session) StockCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	seen := make(map[string]bool)
	for _, l := range s.lines {
		if !seen[l.Stock.Code] {
			seen[l.Stock.Code] = true
			codes = append(codes, l.Stock.Code)
		}
	}
	return codes
}

// StartNewInvoice discards the draft and fetches a fresh invoice number.
func (s *Session) StartNewInvoice(ctx context.Context) error {
	return s.apply(func() error { return s.startNewInvoice(ctx) })
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Lines() []DraftLine { return s.Snapshot().Lines }

func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Session) Message() *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message == nil {
		return nil
	}
	m := *s.message
	return &m
}

func (s *Session) Processed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed
}

func (s *Session) NextInvoiceNumber() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumber
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                s.id,
		Lines:             make([]DraftLine, 0, len(s.lines)),
		Totals:            s.totals,
		NextInvoiceNumber: s.nextNumber,
		Processed:         s.processed,
		Posted:            s.posted,
	}
	if s.debtor != nil {
		d := *s.debtor
		snap.Debtor = &d
	}
	for _, l := range s.lines {
		snap.Lines = append(snap.Lines, *l)
	}
	if s.message != nil {
		m := *s.message
		snap.Message = &m
	}
	return snap
}

func (s *Session) startNewInvoice(ctx context.Context) error {
	s.lines = nil
	s.debtor = nil
	s.stock = make(map[string]models.StockItem)
	s.processed = false
	s.posted = nil
	s.message = nil
	s.linesChanged()

	n, err := s.store.NextInvoiceNumber(ctx)
	if err != nil {
		s.nextNumber = 0
		s.logger.WithError(err).Error("fetch next invoice number")
		msg := "could not fetch the next invoice number"
		s.message = &Message{Kind: MessageError, Text: msg}
		return &ValidationError{Err: ErrNumberUnavailable, Message: msg}
	}
	s.nextNumber = n
	return nil
}

func (s *Session) addLine(stock models.StockItem, qty int, discountPercent decimal.Decimal) error {
	if qty <= 0 {
		return s.fail(ErrInvalidQuantity, "quantity must be greater than zero")
	}
	if !validDiscount(discountPercent) {
		return s.fail(ErrInvalidDiscount, "discount must be between 0 and 100")
	}

	existing := s.quantityFor(stock.Code, nil)
	if qty > stock.QuantityOnHand-existing {
		return s.fail(ErrInsufficientStock,
			"not enough stock for %s: %d requested in total, only %d more can be added",
			stock.Code, utils.AddQuantities(existing, qty), nonNegative(stock.QuantityOnHand-existing))
	}

	s.applyStock(stock)
	if line := s.findMatch(stock.Code, discountPercent, nil); line != nil {
		// the existing line's discount stays authoritative
		line.Qty += qty
		line.reprice()
	} else {
		s.lastLineID++
		line := &DraftLine{
			ID:              s.lastLineID,
			Stock:           stock,
			Qty:             qty,
			DiscountPercent: discountPercent,
		}
		line.reprice()
		s.lines = append(s.lines, line)
	}
	s.linesChanged()
	s.message = nil
	return nil
}

func (s *Session) updateLine(lineID int, qty int, discountPercent decimal.Decimal) error {
	target := s.findLine(lineID)
	if target == nil {
		return s.fail(ErrLineNotFound, "line %d is not on this invoice", lineID)
	}
	if qty <= 0 {
		s.removeLine(target)
		s.linesChanged()
		s.message = &Message{Kind: MessageWarning, Text: fmt.Sprintf("%s removed due to zero quantity", target.Stock.Code)}
		return nil
	}
	if !validDiscount(discountPercent) {
		return s.fail(ErrInvalidDiscount, "discount must be between 0 and 100")
	}

	code := target.Stock.Code
	stock, ok := s.stock[code]
	if !ok {
		stock = target.Stock
	}
	others := s.quantityFor(code, target)
	if qty > stock.QuantityOnHand-others {
		return s.fail(ErrInsufficientStock,
			"not enough stock for %s: %d requested in total, only %d available",
			code, utils.AddQuantities(others, qty), nonNegative(stock.QuantityOnHand-others))
	}

	if other := s.findMatch(code, discountPercent, target); other != nil {
		other.Qty += qty
		other.DiscountPercent = discountPercent
		other.reprice()
		s.removeLine(target)
	} else {
		target.Qty = qty
		target.DiscountPercent = discountPercent
		target.reprice()
	}
	s.linesChanged()
	s.message = nil
	return nil
}

// linesChanged recomputes totals from scratch. Any edit also retires the
// confirm key so a retried confirm of different content posts anew.
func (s *Session) linesChanged() {
	s.totals = computeTotals(s.lines)
	s.confirmKey = uuid.NewString()
}

func (s *Session) fail(kind error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	s.message = &Message{Kind: MessageError, Text: msg}
	s.logger.WithField("reason", kind.Error()).Warn(msg)
	return &ValidationError{Err: kind, Message: msg}
}

// applyStock records the latest stock item and moves every line of that code
// onto its prices, so one invoice never carries two prices for a code.
func (s *Session) applyStock(stock models.StockItem) {
	s.stock[stock.Code] = stock
	for _, l := range s.lines {
		if l.Stock.Code == stock.Code {
			l.Stock = stock
			l.reprice()
		}
	}
}

// quantityFor sums quantities of lines with code, skipping except.
func (s *Session) quantityFor(code string, except *DraftLine) int {
	total := 0
	for _, l := range s.lines {
		if l != except && l.Stock.Code == code {
			total = utils.AddQuantities(total, l.Qty)
		}
	}
	return total
}

func (s *Session) findMatch(code string, discountPercent decimal.Decimal, except *DraftLine) *DraftLine {
	for _, l := range s.lines {
		if l != except && l.matches(code, discountPercent) {
			return l
		}
	}
	return nil
}

func (s *Session) findLine(id int) *DraftLine {
	for _, l := range s.lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *Session) removeLine(target *DraftLine) {
	for i, l := range s.lines {
		if l == target {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
