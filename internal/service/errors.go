package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-inventory-ledger/pkg/validator"

	"gorm.io/gorm"
)

var (
	ErrAuthFailure = errors.New("invalid username or password")
	ErrForbidden   = errors.New("insufficient privileges")

	ErrUserNotFound        = errors.New("user not found")
	ErrItemNotFound        = errors.New("inventory item not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateName     = errors.New("category name already exists")
	ErrDuplicateSKU      = errors.New("SKU already exists")

	ErrValidation        = errors.New("validation failed")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidKind       = errors.New("unknown transaction kind")
	ErrInsufficientStock = errors.New("insufficient stock remaining")
	ErrCategoryInUse     = errors.New("category still has items")
	ErrCannotDeleteSelf  = errors.New("cannot delete your own account")

	ErrConflict          = errors.New("too much concurrent activity on this item, try again")
	ErrResourceExhausted = errors.New("server busy, try again later")
)

// validate runs the struct tags and reports the first failing field.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
	}
	return nil
}

// storeError maps repository errors onto service errors. notFound replaces
// gorm.ErrRecordNotFound; an expired or cancelled context becomes ErrResourceExhausted,
// with the cause logged rather than returned.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Printf("request gave up waiting: %v", err)
		return ErrResourceExhausted
	}
	return err
}
