package errors

import "github.com/pkg/errors"

var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrQuoteFetchFailed         = errors.New("quote fetch failed")
	ErrNoRouteFound             = errors.New("no route found")
	ErrAllowanceReadFailed      = errors.New("allowance read failed")
	ErrApprovalFailed           = errors.New("approval transaction failed")
	ErrUserRejected             = errors.New("transaction rejected by user")
	ErrSubmissionFailed         = errors.New("transaction submission failed")
	ErrDenomNotFound            = errors.New("destination denom not found")
	ErrDepositAddressResolution = errors.New("deposit address resolution failed")
	ErrQuoteStale               = errors.New("quote snapshot is stale")
	ErrImpactUnavailable        = errors.New("price impact unavailable")
	ErrNoQuoteSelected          = errors.New("no quote selected")
	ErrChainNotFound            = errors.New("chain not found")
	ErrChainExists              = errors.New("chain already exists in registry")
	ErrInvalidChainType         = errors.New("invalid chain type")
	ErrInvalidConfig            = errors.New("invalid chain configuration")
	ErrFactoryNotProvided       = errors.New("chain factory not provided")
	ErrNotImplemented           = errors.New("functionality not implemented")
	ErrDatabaseConnect          = errors.New("failed to connect to database")
	ErrTokenNotFound            = errors.New("token not found")
)
