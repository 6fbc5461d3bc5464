package config

import "errors"

// Ошибки валидации, которые вызывающий код может проверить через errors.Is
var (
	ErrListingURLRequired   = errors.New("site.listing_url is required")
	ErrInvalidPageSize      = errors.New("pagination.page_size must be > 0")
	ErrUnknownStorageDriver = errors.New("storage.driver must be one of mongo, postgres, mssql, sqlite, redis")
	ErrStorageDSNRequired   = errors.New("storage.dsn is required")
)
