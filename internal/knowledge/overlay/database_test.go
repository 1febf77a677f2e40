// internal/knowledge/overlay/database_test.go
package overlay

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLoader(t *testing.T, ttl, negativeTTL time.Duration) (*DatabaseLoader, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDatabaseLoader(db, ttl, negativeTTL), mock
}

func expectOverlayQuery(mock sqlmock.Sqlmock) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta(activeOverlayQuery))
}

func TestDatabaseLoader_LoadActiveOverlay(t *testing.T) {
	loader, mock := newMockLoader(t, 5*time.Minute, time.Minute)

	expectOverlayQuery(mock).WillReturnRows(
		sqlmock.NewRows([]string{"overlay"}).AddRow([]byte(`{"event":{"dates":"Dec 1"}}`)),
	)

	got, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dec 1", got["event"].(map[string]interface{})["dates"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLoader_CachesWithinTTL(t *testing.T) {
	loader, mock := newMockLoader(t, 5*time.Minute, time.Minute)

	// Only one query expected for two loads.
	expectOverlayQuery(mock).WillReturnRows(
		sqlmock.NewRows([]string{"overlay"}).AddRow([]byte(`{"a":"1"}`)),
	)

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	second, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLoader_NoActiveRowIsNotAvailableAndCached(t *testing.T) {
	loader, mock := newMockLoader(t, 5*time.Minute, time.Minute)

	// Single query: the not-available outcome is cached too.
	expectOverlayQuery(mock).WillReturnRows(sqlmock.NewRows([]string{"overlay"}))

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotAvailable)

	_, err = loader.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotAvailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLoader_QueryErrorIsNotAvailable(t *testing.T) {
	loader, mock := newMockLoader(t, 5*time.Minute, time.Minute)

	expectOverlayQuery(mock).WillReturnError(errors.New("connection refused"))

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLoader_MalformedDocumentIsNotAvailable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"event":`},
		{"top-level array", `[1,2,3]`},
		{"top-level scalar", `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, mock := newMockLoader(t, 5*time.Minute, time.Minute)
			expectOverlayQuery(mock).WillReturnRows(
				sqlmock.NewRows([]string{"overlay"}).AddRow([]byte(tt.raw)),
			)

			_, err := loader.Load(context.Background())
			assert.ErrorIs(t, err, ErrNotAvailable)
		})
	}
}

func TestDatabaseLoader_InvalidateForcesRefetch(t *testing.T) {
	loader, mock := newMockLoader(t, 5*time.Minute, time.Minute)

	expectOverlayQuery(mock).WillReturnRows(
		sqlmock.NewRows([]string{"overlay"}).AddRow([]byte(`{"v":"old"}`)),
	)
	expectOverlayQuery(mock).WillReturnRows(
		sqlmock.NewRows([]string{"overlay"}).AddRow([]byte(`{"v":"new"}`)),
	)

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", first["v"])

	loader.Invalidate()

	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", second["v"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
