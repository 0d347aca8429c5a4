package sessions

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/retail_ledger/invoicing"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	registry *Registry
	store    invoicing.Store
	logger   *logrus.Logger
}

func NewHandler(registry *Registry, store invoicing.Store, logger *logrus.Logger) *Handler {
	return &Handler{registry: registry, store: store, logger: logger}
}

type selectDebtorInput struct {
	Code string `json:"debtor_code" binding:"required"`
}

type addLineInput struct {
	StockCode       string          `json:"stock_code" binding:"required"`
	Qty             int             `json:"qty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type updateLineInput struct {
	Qty             int             `json:"qty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:id", h.withSession(h.get))
	rg.DELETE("/sessions/:id", h.remove)
	rg.PUT("/sessions/:id/debtor", h.withSession(h.selectDebtor))
	rg.POST("/sessions/:id/lines", h.withSession(h.addLine))
	rg.PUT("/sessions/:id/lines/:lineId", h.withSession(h.updateLine))
	rg.DELETE("/sessions/:id/lines/:lineId", h.withSession(h.removeLine))
	rg.POST("/sessions/:id/confirm", h.withSession(h.confirm))
	rg.POST("/sessions/:id/new", h.withSession(h.startNew))
}

func (h *Handler) withSession(fn func(*gin.Context, *invoicing.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.registry.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice session not found"})
			return
		}
		fn(c, s)
	}
}

func (h *Handler) create(c *gin.Context) {
	s, err := h.registry.Create(c.Request.Context())
	if err != nil {
		h.respondError(c, nil, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *Handler) get(c *gin.Context, s *invoicing.Session) {
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) remove(c *gin.Context) {
	if !h.registry.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) selectDebtor(c *gin.Context, s *invoicing.Session) {
	var input selectDebtorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	debtor, err := h.store.LookupDebtor(c.Request.Context(), input.Code)
	if err != nil {
		h.respondError(c, s, err)
		return
	}
	s.SelectDebtor(*debtor)
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) addLine(c *gin.Context, s *invoicing.Session) {
	var input addLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	stock, err := h.store.LookupStock(c.Request.Context(), input.StockCode)
	if err != nil {
		h.respondError(c, s, err)
		return
	}
	if err := s.AddLine(*stock, input.Qty, input.DiscountPercent); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) updateLine(c *gin.Context, s *invoicing.Session) {
	lineID, err := strconv.Atoi(c.Param("lineId"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	var input updateLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.refreshStock(c.Request.Context(), s); err != nil {
		h.respondError(c, s, err)
		return
	}
	if err := s.UpdateLine(lineID, input.Qty, input.DiscountPercent); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) removeLine(c *gin.Context, s *invoicing.Session) {
	lineID, err := strconv.Atoi(c.Param("lineId"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	s.RemoveLine(lineID)
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) confirm(c *gin.Context, s *invoicing.Session) {
	ctx := c.Request.Context()
	if err := h.refreshStock(ctx, s); err != nil {
		h.respondError(c, s, err)
		return
	}
	if _, err := s.Confirm(ctx); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

// refreshStock reloads on-hand quantities so edits and Confirm check current stock.
func (h *Handler) refreshStock(ctx context.Context, s *invoicing.Session) error {
	for _, code := range s.StockCodes() {
		stock, err := h.store.LookupStock(ctx, code)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			// deleted since it was added: nothing left to sell
			s.RefreshStock(outOfStock(s, code))
			continue
		}
		if err != nil {
			return err
		}
		s.RefreshStock(*stock)
	}
	return nil
}

func outOfStock(s *invoicing.Session, code string) models.StockItem {
	for _, l := range s.Lines() {
		if l.Stock.Code == code {
			item := l.Stock
			item.QuantityOnHand = 0
			return item
		}
	}
	return models.StockItem{Code: code}
}

func (h *Handler) startNew(c *gin.Context, s *invoicing.Session) {
	if err := s.StartNewInvoice(c.Request.Context()); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
}

func (h *Handler) respondError(c *gin.Context, s *invoicing.Session, err error) {
	body := gin.H{"error": err.Error()}
	if s != nil {
		body["session"] = s.Snapshot()
	}

	var verr *invoicing.ValidationError
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, body)
	case errors.As(err, &verr):
		body["kind"] = verr.Err.Error()
		c.JSON(statusFor(verr.Err), body)
	default:
		_ = c.Error(err)
		body["error"] = "internal error"
		c.JSON(http.StatusInternalServerError, body)
	}
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, invoicing.ErrAlreadyConfirmed):
		return http.StatusConflict
	case errors.Is(kind, invoicing.ErrCommitFailed), errors.Is(kind, invoicing.ErrNumberUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
