package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/swap"
	"skillswap/internal/domain/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newGormWithMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

var userColumns = []string{
	"id", "seq", "name", "email", "password_hash", "location", "availability",
	"is_public", "active", "role", "rating", "skills_offered", "skills_wanted", "created_at", "updated_at",
}

func userRow(u *user.User) *sqlmock.Rows {
	offered, _ := u.SkillsOffered.Value()
	wanted, _ := u.SkillsWanted.Value()
	return sqlmock.NewRows(userColumns).AddRow(
		u.ID.String(), int64(1), u.Name, u.Email, u.PasswordHash, u.Location, u.Availability,
		u.IsPublic, u.Active, u.Role, u.Rating, offered, wanted, u.CreatedAt, u.UpdatedAt,
	)
}

var swapColumns = []string{
	"id", "requester_id", "receiver_id", "offered_skill", "wanted_skill", "message", "status", "created_at", "updated_at",
}

func swapRow(r *swap.Request) *sqlmock.Rows {
	return sqlmock.NewRows(swapColumns).AddRow(
		r.ID.String(), r.RequesterID.String(), r.ReceiverID.String(), r.OfferedSkill, r.WantedSkill,
		r.Message, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
}

func TestUserRepository_CreateKeepsPrivateFlag(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)
	u := newTestUser("Alice", "alice@example.com", false)

	mock.ExpectBegin()
	mock.ExpectQuery(`^INSERT INTO "users"`).
		WithArgs(
			sqlmock.AnyArg(), // id
			"Alice",
			"alice@example.com",
			"hash",
			"", // location
			"", // availability
			false,
			true,
			user.RoleUser,
			sqlmock.AnyArg(), // rating
			sqlmock.AnyArg(), // skills_offered
			sqlmock.AnyArg(), // skills_wanted
			sqlmock.AnyArg(), // created_at
			sqlmock.AnyArg(), // updated_at
		).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))
	mock.ExpectCommit()

	var hooked *user.User
	err := repo.Create(context.Background(), u, func(_ context.Context, created *user.User) error {
		hooked = created
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, hooked)
	assert.Equal(t, u.ID, hooked.ID)
	assert.False(t, u.IsPublic)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		field      string
	}{
		{usersEmailConstraint, "email"},
		{"users_pkey", "id"},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			db, mock := newGormWithMock(t)
			repo := NewUserRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`^INSERT INTO "users"`).WillReturnError(uniqueErr(tc.constraint))
			mock.ExpectRollback()

			hookCalled := false
			err := repo.Create(context.Background(), newTestUser("Alice", "alice@example.com", true), func(context.Context, *user.User) error {
				hookCalled = true
				return nil
			})
			assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.field, appErr.Field)
			assert.False(t, hookCalled)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateHookFailureRollsBack(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)
	errHook := errors.New("index unavailable")

	mock.ExpectBegin()
	mock.ExpectQuery(`^INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(1)))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newTestUser("Alice", "alice@example.com", true), func(context.Context, *user.User) error {
		return errHook
	})
	assert.ErrorIs(t, err, errHook)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateLocksRowAndCommits(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)
	u := newTestUser("Alice", "alice@example.com", true)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE$`).WillReturnRows(userRow(u))
	mock.ExpectExec(`^UPDATE "users" SET `).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), u.ID, func(u *user.User) error {
		u.SkillsOffered = pq.StringArray{"rust"}
		return nil
	}, func(_ context.Context, u *user.User) error {
		assert.Equal(t, pq.StringArray{"rust"}, u.SkillsOffered)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"rust"}, updated.SkillsOffered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateHookFailureRollsBack(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)
	u := newTestUser("Alice", "alice@example.com", true)
	errHook := errors.New("index unavailable")

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE$`).WillReturnRows(userRow(u))
	mock.ExpectExec(`^UPDATE "users" SET `).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), u.ID, func(u *user.User) error {
		u.SkillsOffered = pq.StringArray{"rust"}
		return nil
	}, func(context.Context, *user.User) error {
		return errHook
	})
	assert.ErrorIs(t, err, errHook)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateUnknownUser(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE$`).WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectRollback()

	mutated := false
	_, err := repo.Update(context.Background(), uuid.New(), func(*user.User) error {
		mutated = true
		return nil
	}, nil)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.False(t, mutated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newPendingRequest() *swap.Request {
	return swap.NewRequest(uuid.New(), &swap.CreateRequestInput{
		ReceiverID:   uuid.New(),
		OfferedSkill: "go",
		WantedSkill:  "rust",
	}, time.Unix(1700000000, 0))
}

func TestSwapRequestRepository_CreatePendingUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		field      string
	}{
		{pendingPairConstraint, "receiver_id"},
		{"swap_requests_pkey", "id"},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			db, mock := newGormWithMock(t)
			repo := NewSwapRequestRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(`^INSERT INTO "swap_requests"`).WillReturnError(uniqueErr(tc.constraint))
			mock.ExpectRollback()

			err := repo.CreatePending(context.Background(), newPendingRequest())
			assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.field, appErr.Field)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSwapRequestRepository_CreatePendingOtherErrorsAreWrapped(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewSwapRequestRepository(db)
	errDown := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO "swap_requests"`).WillReturnError(errDown)
	mock.ExpectRollback()

	err := repo.CreatePending(context.Background(), newPendingRequest())
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, apperror.Kind(""), apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepository_TransitionWinsCompareAndSet(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewSwapRequestRepository(db)
	req := newPendingRequest()
	accepted := *req
	accepted.Status = swap.StatusAccepted

	mock.ExpectBegin()
	mock.ExpectExec(`^UPDATE "swap_requests" SET .* WHERE id = \$\d+ AND status = \$\d+$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`^SELECT \* FROM "swap_requests" WHERE id = \$1`).WillReturnRows(swapRow(&accepted))
	mock.ExpectCommit()

	got, err := repo.Transition(context.Background(), req.ID, swap.StatusAccepted, time.Unix(1700000100, 0))
	require.NoError(t, err)
	assert.Equal(t, swap.StatusAccepted, got.Status)
	assert.Equal(t, req.ID, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepository_TransitionLosesCompareAndSet(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewSwapRequestRepository(db)
	req := newPendingRequest()
	declined := *req
	declined.Status = swap.StatusDeclined

	mock.ExpectBegin()
	mock.ExpectExec(`^UPDATE "swap_requests" SET `).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT \* FROM "swap_requests" WHERE id = \$1`).WillReturnRows(swapRow(&declined))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), req.ID, swap.StatusAccepted, time.Unix(1700000100, 0))
	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "declined")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepository_TransitionUnknownRequest(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewSwapRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`^UPDATE "swap_requests" SET `).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT \* FROM "swap_requests" WHERE id = \$1`).WillReturnRows(sqlmock.NewRows(swapColumns))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), uuid.New(), swap.StatusDeclined, time.Unix(1700000100, 0))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillSnapshotRepository_ScansArrays(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := NewSkillSnapshotRepository(sqlx.NewDb(sqlDB, "postgres"))

	alice, bob := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(skillSnapshotQuery)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "active", "skills_offered", "skills_wanted"}).
			AddRow(alice.String(), true, "{go,\"adobe photoshop\"}", "{rust}").
			AddRow(bob.String(), false, "{}", "{}"),
	)

	snapshots, err := repo.SkillSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, alice, snapshots[0].ID)
	assert.True(t, snapshots[0].Active)
	assert.Equal(t, pq.StringArray{"go", "adobe photoshop"}, snapshots[0].SkillsOffered)
	assert.Equal(t, pq.StringArray{"rust"}, snapshots[0].SkillsWanted)

	assert.Equal(t, bob, snapshots[1].ID)
	assert.False(t, snapshots[1].Active)
	assert.Empty(t, snapshots[1].SkillsOffered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillSnapshotRepository_WrapsErrors(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := NewSkillSnapshotRepository(sqlx.NewDb(sqlDB, "postgres"))

	mock.ExpectQuery(regexp.QuoteMeta(skillSnapshotQuery)).WillReturnError(errors.New("db down"))

	_, err = repo.SkillSnapshots(context.Background())
	assert.ErrorContains(t, err, "failed to load skill snapshots")
}

func TestUniqueViolation(t *testing.T) {
	constraint, ok := uniqueViolation(fmt.Errorf("insert: %w", uniqueErr(usersEmailConstraint)))
	assert.True(t, ok)
	assert.Equal(t, usersEmailConstraint, constraint)

	_, ok = uniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "swap_requests_receiver_id_fkey"})
	assert.False(t, ok)

	constraint, ok = uniqueViolation(gorm.ErrDuplicatedKey)
	assert.True(t, ok)
	assert.Empty(t, constraint)

	_, ok = uniqueViolation(errors.New("timeout"))
	assert.False(t, ok)
}
