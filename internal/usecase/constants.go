package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a store transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPageSize is the page size used when a caller asks for none.
	DefaultPageSize = 50

	// MaxPageSize caps paginated listings.
	MaxPageSize = 1000

	// MaxSlugAttempts bounds slug candidates tried for one name.
	MaxSlugAttempts = 32

	// maxCreateAttempts bounds re-generation after a slug lost a race at
	// insert time.
	maxCreateAttempts = 3
)
