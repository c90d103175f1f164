package paymentlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ilpstreamd/internal/config"
)

func TestPebbleStorePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := newPebbleStore(dir, true)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	rec := sampleRecord()

	require.NoError(t, store.Put(ctx, rec.PaymentID, rec))

	got, ok, err := store.Get(ctx, rec.PaymentID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, got)
}

func TestPebbleStoreGetMissingReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	store, err := newPebbleStore(dir, false)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenDisabledBackendReturnsNilStore(t *testing.T) {
	store, err := Open(config.PaymentLogConfig{Backend: ""})
	require.NoError(t, err)
	require.Nil(t, store)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(config.PaymentLogConfig{Backend: "carrier-pigeon"})
	require.Error(t, err)
}

func TestOpenSelectsPebbleBackend(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(config.PaymentLogConfig{Backend: "pebble", Path: dir})
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, store.Close())
}
