package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EncodeCursor serializa o cursor como "<unix nanos>_<id>" para uso em query string
func EncodeCursor(at time.Time, id string) string {
	return strconv.FormatInt(at.UnixNano(), 10) + "_" + id
}

// ParseCursor é o inverso de EncodeCursor; string vazia retorna nil
func ParseCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	nanos, id, ok := strings.Cut(s, "_")
	if !ok || id == "" {
		return nil, fmt.Errorf("malformed cursor %q", s)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	return &Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}
