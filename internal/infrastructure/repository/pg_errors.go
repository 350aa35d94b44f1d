package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"

	usersEmailConstraint  = "idx_users_email"
	pendingPairConstraint = "idx_swap_requests_pending_pair"
)

// uniqueViolation reports whether err is a unique-constraint failure and, when the driver
// exposes it, the name of the violated constraint.
func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName, pgErr.Code == pgUniqueViolation
	}
	return "", errors.Is(err, gorm.ErrDuplicatedKey)
}
