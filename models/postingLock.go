package models

import (
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const invoicePostingLock = "posting:sales_invoice"

// AcquireInvoicePostingLock serializes invoice number allocation across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same connection that will do the posting transaction.
func AcquireInvoicePostingLock(conn *gorm.DB) error {
	var ok int
	if err := conn.Raw("SELECT GET_LOCK(?, 30)", invoicePostingLock).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire invoice posting lock")
	}
	return nil
}

func ReleaseInvoicePostingLock(conn *gorm.DB) {
	var _ok int
	_ = conn.Raw("SELECT RELEASE_LOCK(?)", invoicePostingLock).Scan(&_ok).Error
}

func IsDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
