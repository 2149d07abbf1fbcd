package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewSortableID gera um ULID: ordenável pelo instante e monotônico dentro do mesmo milissegundo
func NewSortableID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
