package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации (деплой настроен неверно, 500)
	ErrMissingAccessHash = fmt.Errorf("access code hash is not configured")

	// 400 Bad Request
	ErrMissingFields = fmt.Errorf("ean, name and brand are required")
	ErrEANConflict   = fmt.Errorf("product with this ean already exists")
	ErrInvalidID     = fmt.Errorf("invalid product id")

	// 401 Unauthorized
	ErrUnauthorized      = fmt.Errorf("authentication required")
	ErrInvalidAccessCode = fmt.Errorf("invalid access code")

	// 404 Not Found
	ErrNotFound = fmt.Errorf("product not found")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
