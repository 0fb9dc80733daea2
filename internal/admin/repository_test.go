// AngelaMos | 2026
// repository_test.go

package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForumCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // test teardown

	mock.ExpectQuery(`SELECT .* AS gold_members`).
		WillReturnRows(sqlmock.NewRows([]string{
			"users", "posts", "comments", "reported_comments", "gold_members", "payments",
		}).AddRow(12, 40, 95, 3, 4, 6))

	counts, err := NewRepository(sqlx.NewDb(db, "pgx")).ForumCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ForumCounts{
		Users:            12,
		Posts:            40,
		Comments:         95,
		ReportedComments: 3,
		GoldMembers:      4,
		Payments:         6,
	}, *counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForumCountsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // test teardown

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	_, err = NewRepository(sqlx.NewDb(db, "pgx")).ForumCounts(context.Background())
	require.ErrorContains(t, err, "forum counts")
}
