package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInvalidCreditType = errors.New("invalid credit type")
	ErrEmployeeInactive  = errors.New("employee is not active")
)
