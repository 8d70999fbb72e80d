package domain

import "github.com/oklog/ulid/v2"

// NewRunID gera um ULID ordenável para identificar execuções.
func NewRunID() string {
	return ulid.Make().String()
}
