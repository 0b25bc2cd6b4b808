package domain

import "errors"

var (
	// ErrInvalidCriteria - критерии поиска некорректны (даты, диапазоны, режим).
	ErrInvalidCriteria = errors.New("invalid search criteria")
	// ErrInvalidRecord - строка не проходит инварианты TransactionRecord.
	ErrInvalidRecord = errors.New("invalid transaction record")

	// ErrSessionUnavailable - браузерную сессию не удалось создать вовсе.
	ErrSessionUnavailable = errors.New("browser session unavailable")

	// Восстанавливаемые ошибки живого извлечения.
	ErrPageLoad           = errors.New("page did not load in time")
	ErrSelectorMissing    = errors.New("search input not found")
	ErrSuggestionsTimeout = errors.New("autocomplete suggestions did not appear")
	ErrResultsTimeout     = errors.New("results table did not appear")
)

// ErrSourceNotConfigured - для запрошенного режима нет источника данных.
var ErrSourceNotConfigured = errors.New("no candidate source configured for mode")
