package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Debtor is a customer account. Balance is raised by every posted invoice.
type Debtor struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Code        string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Email       string          `gorm:"size:100" json:"email"`
	Phone       string          `gorm:"size:20" json:"phone"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDebtor struct {
	Code        string          `json:"code" binding:"required,max=20"`
	Name        string          `json:"name" binding:"required,max=100"`
	Email       string          `json:"email" binding:"omitempty,email"`
	Phone       string          `json:"phone"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type DebtorReferenceType string

const (
	DebtorReferenceInvoice DebtorReferenceType = "IV"
)

// DebtorTransaction is the append-only account history of a debtor.
type DebtorTransaction struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	DebtorCode      string              `gorm:"size:20;not null;index" json:"debtor_code"`
	TransactionDate time.Time           `gorm:"not null" json:"transaction_date"`
	ReferenceType   DebtorReferenceType `gorm:"type:enum('IV');not null" json:"reference_type"`
	ReferenceId     int                 `gorm:"index" json:"reference_id"`
	ReferenceNumber string              `gorm:"size:50" json:"reference_number"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"amount"`
	RunningBalance  decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"running_balance"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (input *NewDebtor) validate(ctx context.Context, db *gorm.DB) error {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Phone != "" {
		phone, err := utils.FormatPhoneNumber(input.Phone, utils.CountryCode)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrorInvalidInput, err)
		}
		input.Phone = phone
	}
	if err := utils.ValidateUnique[Debtor](ctx, db, "code", input.Code, nil); err != nil {
		return err
	}
	return utils.ValidateUnique[Debtor](ctx, db, "name", input.Name, nil)
}
