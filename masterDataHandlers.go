package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/retail_ledger/middlewares"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/utils"
)

type invoiceLineView struct {
	models.SalesInvoiceDetail
	CurrentOnHand *int `json:"current_on_hand"`
}

type invoiceView struct {
	*models.SalesInvoice
	DebtorName string            `json:"debtor_name"`
	Lines      []invoiceLineView `json:"lines"`
}

func registerMasterDataRoutes(rg *gin.RouterGroup, store *models.InvoiceStore) {
	rg.GET("/stock-items", func(c *gin.Context) {
		items, err := store.ListStockItems(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})

	rg.POST("/stock-items", func(c *gin.Context) {
		var input models.NewStockItem
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		item, err := store.CreateStockItem(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	})

	rg.POST("/stock-items/:code/adjust", func(c *gin.Context) {
		var input models.StockAdjustment
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		item, err := store.AdjustStockQuantity(c.Request.Context(), c.Param("code"), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	rg.GET("/stock-items/:code/history", func(c *gin.Context) {
		rows, err := store.GetStockHistory(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/debtors", func(c *gin.Context) {
		debtors, err := store.ListDebtors(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, debtors)
	})

	rg.POST("/debtors", func(c *gin.Context) {
		var input models.NewDebtor
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		debtor, err := store.CreateDebtor(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, debtor)
	})

	rg.GET("/debtors/:code/transactions", func(c *gin.Context) {
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		rows, err := store.GetDebtorTransactions(c.Request.Context(), c.Param("code"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/invoices", func(c *gin.Context) {
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		invoices, err := store.ListSalesInvoices(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]invoiceView, 0, len(invoices))
		for _, inv := range invoices {
			views = append(views, invoiceView{SalesInvoice: inv, DebtorName: debtorName(c, inv.DebtorCode)})
		}
		c.JSON(http.StatusOK, views)
	})

	rg.GET("/invoices/:number", func(c *gin.Context) {
		inv, err := store.GetSalesInvoice(c.Request.Context(), c.Param("number"))
		if err != nil {
			respondError(c, err)
			return
		}
		view := invoiceView{SalesInvoice: inv, DebtorName: debtorName(c, inv.DebtorCode)}
		codes := make([]string, len(inv.Details))
		for i, d := range inv.Details {
			codes[i] = d.StockCode
		}
		items, errs := middlewares.GetStockItems(c.Request.Context(), codes)
		for i, d := range inv.Details {
			line := invoiceLineView{SalesInvoiceDetail: d}
			if (len(errs) == 0 || errs[i] == nil) && items[i] != nil {
				line.CurrentOnHand = &items[i].QuantityOnHand
			}
			view.Lines = append(view.Lines, line)
		}
		c.JSON(http.StatusOK, view)
	})
}

func debtorName(c *gin.Context, code string) string {
	d, err := middlewares.GetDebtor(c.Request.Context(), code)
	if err != nil || d == nil {
		return ""
	}
	return d.Name
}

// dateRange reads ?from=&to= as dates; to is inclusive. Defaults to the last 30 days.
func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return from, to, errBadDate
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return from, to, errBadDate
		}
		to = t
	}
	if to.Before(from) {
		return from, to, errBadDate
	}
	return from, to.AddDate(0, 0, 1), nil
}

var errBadDate = errors.New("from and to must be dates (YYYY-MM-DD) with from <= to")

func respondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
	case errors.Is(err, errBadDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorDuplicateValue):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNegativeStock), errors.Is(err, utils.ErrorInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorLockNotObtained):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
