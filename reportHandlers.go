package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/models"
	"github.com/mmdatafocus/retail_ledger/models/reports"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/mmdatafocus/retail_ledger/workflow"
	"github.com/xuri/excelize/v2"
)

func registerReportRoutes(rg *gin.RouterGroup, store *models.InvoiceStore) {
	// ?upload=true stores the workbook in GCS and returns its uri instead
	rg.GET("/invoices/export.xlsx", func(c *gin.Context) {
		ctx := c.Request.Context()
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		invoices, err := store.ListSalesInvoices(ctx, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		names := make(map[string]string)
		for _, inv := range invoices {
			if _, ok := names[inv.DebtorCode]; !ok {
				names[inv.DebtorCode] = debtorName(c, inv.DebtorCode)
			}
		}
		f, err := reports.ExportSalesInvoices(invoices, names)
		if err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("invoices-%s-%s.xlsx", from.Format("20060102"), to.AddDate(0, 0, -1).Format("20060102"))
		if c.Query("upload") == "true" {
			uploadWorkbook(c, f, "exports/"+filename)
			return
		}
		writeWorkbook(c, f, filename)
	})

	rg.GET("/debtors/:code/statement.xlsx", func(c *gin.Context) {
		ctx := c.Request.Context()
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		debtor, err := store.LookupDebtor(ctx, c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		rows, err := store.GetDebtorTransactions(ctx, debtor.Code, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		f, err := reports.ExportDebtorStatement(debtor, rows)
		if err != nil {
			respondError(c, err)
			return
		}
		writeWorkbook(c, f, "statement-"+debtor.Code+".xlsx")
	})

	rg.GET("/reports/sales-by-debtor", func(c *gin.Context) {
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		rows, err := reports.GetSalesByDebtorReport(c.Request.Context(), store.DB(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/reports/daily-summary", func(c *gin.Context) {
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		rows, err := workflow.ListDailySummaries(c.Request.Context(), store.DB(), from, to.AddDate(0, 0, -1))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.POST("/reports/daily-summary/rebuild", func(c *gin.Context) {
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		release, err := utils.JobLock(ctx, "Job", "daily-summary-rebuild", 10*time.Minute, "reportHandlers.go", "rebuildDailySummary")
		if err != nil {
			respondError(c, err)
			return
		}
		defer release()
		n, err := workflow.RebuildDailySummary(ctx, store.DB(), from, to.AddDate(0, 0, -1))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"days": n})
	})
}

func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()
	c.Header("Content-Type", utils.XlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		config.LogError(config.GetLogger(), "reportHandlers.go", "writeWorkbook", "writing xlsx", filename, err)
		_ = c.Error(err)
	}
}

func uploadWorkbook(c *gin.Context, f *excelize.File, objectName string) {
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		respondError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()
	uri, err := utils.UploadFileToGCS(ctx, objectName, utils.XlsxContentType, &buf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uri": uri})
}
