//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/fitbitsync/internal/domain"
)

func startDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("fitbitsync"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestCredentialStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	store := NewCredentialStore(pool)

	userID := uuid.NewString()
	seedCredentials(t, ctx, pool, userID, "token-1", "refresh-1", "ract rwei rsle")

	creds, err := store.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, creds)
	require.Equal(t, "token-1", creds.AccessToken)
	require.Equal(t, "ract rwei rsle", creds.Scope)
	require.Nil(t, creds.LastSync)
	require.True(t, creds.Linked())

	require.NoError(t, store.UpdateTokens(ctx, userID, "token-2", "refresh-2"))
	creds, err = store.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "token-2", creds.AccessToken)
	require.Equal(t, "refresh-2", creds.RefreshToken)
	require.Equal(t, domain.StatusValidToken, creds.Status)

	require.NoError(t, store.UpdateStatus(ctx, userID, domain.StatusInvalidGrant))
	creds, err = store.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInvalidGrant, creds.Status)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateLastSync(ctx, userID, syncedAt))
	creds, err = store.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, creds.LastSync)
	require.True(t, creds.LastSync.Equal(syncedAt))
}

func TestCredentialStoreMissingUser(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	store := NewCredentialStore(pool)

	creds, err := store.GetByUserID(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, creds)

	require.Error(t, store.UpdateTokens(ctx, uuid.NewString(), "a", "b"))
	require.Error(t, store.UpdateStatus(ctx, uuid.NewString(), domain.StatusRevoked))
}

func TestResourceLedgerNaturalKeys(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	ledger := NewResourceLedger(pool)

	userID := uuid.NewString()
	payload, err := json.Marshal(map[string]interface{}{"logId": 100, "weight": 72.5})
	require.NoError(t, err)

	weight := 72.5
	entry := domain.LedgerEntry{
		ID:       uuid.NewString(),
		UserID:   userID,
		Category: domain.LedgerBody,
		LogID:    100,
		Weight:   &weight,
		Resource: payload,
		Provider: "fitbit",
		DateSync: time.Now().UTC(),
	}
	require.NoError(t, ledger.Insert(ctx, entry))

	exists, err := ledger.Exists(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerBody, LogID: 100, Weight: &weight})
	require.NoError(t, err)
	require.True(t, exists)

	// Same log id with a different measurement is a distinct body entry.
	other := 71.0
	exists, err = ledger.Exists(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerBody, LogID: 100, Weight: &other})
	require.NoError(t, err)
	require.False(t, exists)

	// Non-body categories match on log id alone.
	sleepEntry := entry
	sleepEntry.ID = uuid.NewString()
	sleepEntry.Category = domain.LedgerSleep
	sleepEntry.Weight = nil
	require.NoError(t, ledger.Insert(ctx, sleepEntry))

	exists, err = ledger.Exists(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerSleep, LogID: 100})
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = ledger.Exists(ctx, domain.LedgerQuery{UserID: uuid.NewString(), Category: domain.LedgerSleep, LogID: 100})
	require.NoError(t, err)
	require.False(t, exists)
}

func TestResourceLedgerReplaceIsScopedToCategory(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	ledger := NewResourceLedger(pool)

	userID := uuid.NewString()
	for i, category := range []domain.LedgerCategory{domain.LedgerActivity, domain.LedgerActivity, domain.LedgerSleep} {
		require.NoError(t, ledger.Insert(ctx, domain.LedgerEntry{
			ID:       uuid.NewString(),
			UserID:   userID,
			Category: category,
			LogID:    int64(i + 1),
			Provider: "fitbit",
			DateSync: time.Now().UTC(),
		}))
	}

	require.NoError(t, ledger.DeleteAll(ctx, userID, domain.LedgerActivity))

	exists, err := ledger.Exists(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerActivity, LogID: 1})
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = ledger.Exists(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerSleep, LogID: 3})
	require.NoError(t, err)
	require.True(t, exists)
}

func seedCredentials(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, accessToken, refreshToken, scope string) {
	t.Helper()
	const stmt = `INSERT INTO provider_credentials (user_id, access_token, refresh_token, scope, token_type, expires_in, status)
        VALUES ($1,$2,$3,$4,'Bearer',28800,'valid_token')`
	_, err := pool.Exec(ctx, stmt, userID, accessToken, refreshToken, scope)
	require.NoError(t, err)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
