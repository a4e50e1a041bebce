package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	usageredis "github.com/davidbz/forge/internal/usage/redis"
)

func newStore(t *testing.T, opts usageredis.Options) (*usageredis.Store, *goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return usageredis.NewStore(client, opts), client, mr
}

func record(id string, units int64, cost float64) *domain.UsageRecord {
	return &domain.UsageRecord{
		RequestID:   id,
		AccountID:   "acct-1",
		Tokens:      domain.Usage{InputTokens: 1000, OutputTokens: 500},
		Cost:        cost,
		BilledUnits: units,
		Models:      []string{"gpt-4o-mini"},
		Timestamp:   time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestStore_Append(t *testing.T) {
	store, client, _ := newStore(t, usageredis.Options{AuditMaxLen: 100})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, record("r-1", 2, 0.0105)))
	require.Error(t, store.Append(ctx, nil))

	entries, err := client.XRange(ctx, "usage:audit", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "r-1", entries[0].Values["request_id"])

	var stored domain.UsageRecord
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["record"].(string)), &stored))
	require.Equal(t, int64(2), stored.BilledUnits)
	require.Equal(t, []string{"gpt-4o-mini"}, stored.Models)
}

func TestStore_AddToPeriodAccumulates(t *testing.T) {
	store, _, mr := newStore(t, usageredis.Options{PeriodMaxAge: 24 * time.Hour})
	ctx := context.Background()

	_, err := store.AddToPeriod(ctx, "2026-03", record("r-1", 2, 0.01))
	require.NoError(t, err)
	total, err := store.AddToPeriod(ctx, "2026-03", record("r-2", 3, 0.02))
	require.NoError(t, err)

	require.Equal(t, "acct-1", total.AccountID)
	require.Equal(t, int64(5), total.Units)
	require.Equal(t, int64(2000), total.InputTokens)
	require.Equal(t, int64(1000), total.OutputTokens)
	require.Equal(t, int64(2), total.Requests)
	require.InDelta(t, 0.03, total.Cost, 1e-9)

	require.True(t, mr.Exists("usage:period:acct-1:2026-03"))
	require.Greater(t, mr.TTL("usage:period:acct-1:2026-03"), time.Duration(0))

	read, err := store.PeriodTotal(ctx, "acct-1", "2026-03")
	require.NoError(t, err)
	require.Equal(t, total.Units, read.Units)
	require.InDelta(t, total.Cost, read.Cost, 1e-9)
}

func TestStore_PeriodsAndAccountsAreIsolated(t *testing.T) {
	store, _, _ := newStore(t, usageredis.Options{})
	ctx := context.Background()

	_, err := store.AddToPeriod(ctx, "2026-03", record("r-1", 4, 0.04))
	require.NoError(t, err)

	anon := record("r-2", 1, 0)
	anon.AccountID = ""
	total, err := store.AddToPeriod(ctx, "2026-03", anon)
	require.NoError(t, err)
	require.Equal(t, usageredis.AnonymousAccount, total.AccountID)
	require.Equal(t, int64(1), total.Units)

	empty, err := store.PeriodTotal(ctx, "acct-1", "2026-04")
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.Units)
	require.Equal(t, "2026-04", empty.Period)
}
