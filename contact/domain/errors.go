package domain

import "errors"

// Erros de configuração: fatais na construção, nunca viram Result.
var (
	ErrMissingAPIKey   = errors.New("email provider api key is not configured")
	ErrMissingSMTPHost = errors.New("smtp host is not configured")
	ErrMissingProvider = errors.New("email provider is required outside test mode")
	ErrInvalidConfig   = errors.New("invalid configuration")
)
