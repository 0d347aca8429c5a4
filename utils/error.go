package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrorLockNotObtained = errors.New("job is already running elsewhere")

var ErrorDuplicateValue = errors.New("duplicate")

var ErrorInvalidInput = errors.New("invalid input")
