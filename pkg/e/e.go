package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Категории ошибок каталога
	ErrValidation      = fmt.Errorf("validation failed")
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrNetwork         = fmt.Errorf("remote sync failed")

	// 400 Bad Request
	ErrProductNameRequired = fmt.Errorf("%w: product name is required", ErrValidation)
	ErrInvalidPrice        = fmt.Errorf("%w: price must be a finite non-negative number", ErrValidation)
	ErrInvalidStock        = fmt.Errorf("%w: stock must be a number", ErrValidation)
	ErrInvalidFilter       = fmt.Errorf("%w: unknown stock filter", ErrValidation)
	ErrStatusBadRequest    = fmt.Errorf("bad request")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
