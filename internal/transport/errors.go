package transport

import (
	"errors"
	"net/http"

	"github.com/goodnatureofminers/rafflekeeper/internal/ledger"
	"github.com/goodnatureofminers/rafflekeeper/internal/raffle"
	"github.com/goodnatureofminers/rafflekeeper/internal/vrf"
)

var (
	errBadRequest     = errors.New("bad request")
	errJournalOffline = errors.New("event journal is not configured")
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, raffle.ErrInsufficientPayment),
		errors.Is(err, ledger.ErrNegativeAmount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, raffle.ErrPlayerIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, raffle.ErrNotOpen),
		errors.Is(err, raffle.ErrUpkeepNotNeeded):
		return http.StatusConflict
	case errors.Is(err, vrf.ErrInvalidConsumer),
		errors.Is(err, vrf.ErrInvalidSubscription),
		errors.Is(err, errJournalOffline):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
