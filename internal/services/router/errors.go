package router

import "errors"

var (
	ErrPairNotExchangeable = errors.New("pair is not exchangeable")
	ErrRouteTooLong        = errors.New("route exceeds router hop limit")
	ErrAllQuotesFailed     = errors.New("every candidate route failed to quote")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrCatalogueNotReady   = errors.New("pool catalogue not loaded")
)
