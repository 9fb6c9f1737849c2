package common

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrInvalidUUID is returned for ids that are not UUIDs.
var ErrInvalidUUID = errors.New("invalid uuid")

// ParseUUID converts a textual id into a pgtype.UUID.
func ParseUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, ErrInvalidUUID
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

// UUIDString renders a pgtype.UUID, or "" when it is NULL.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// UUIDEqual reports whether two ids are both set and equal.
func UUIDEqual(a, b pgtype.UUID) bool {
	return a.Valid && b.Valid && a.Bytes == b.Bytes
}

// NewUUID returns a random id.
func NewUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}
