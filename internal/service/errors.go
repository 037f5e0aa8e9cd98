package service

import (
	"errors"
	"fmt"
)

var (
	ErrPackageIDRequired = errors.New("patient package id is required")
	ErrPackageNotFound   = errors.New("patient package not found")
	ErrExpiryNotSet      = errors.New("package expiration date not set")
	ErrNoAssignments     = errors.New("no therapists assigned for package")
	ErrNoScheduleConfigs = errors.New("no schedule configurations found")

	ErrSessionIDRequired = errors.New("session id is required")
	ErrSessionNotFound   = errors.New("session not found")

	ErrClinicIDRequired = errors.New("clinic id is required")
)

// StoreError критичная ошибка обращения к хранилищу.
// Message предназначено для клиента, Err - для диагностики.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(message string, err error) error {
	return &StoreError{Message: message, Err: err}
}
