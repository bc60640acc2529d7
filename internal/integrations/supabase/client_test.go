package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, Key: "anon-key"}, zap.NewNop())
	require.NoError(t, err)
	client.httpClient.SetRetryCount(0)
	return client
}

func TestListRecords_SendsRangeAndKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/items", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "0-9999", r.Header.Get("Range"))
		assert.Equal(t, "items", r.Header.Get("Range-Unit"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Range", "0-1/2")
		_, _ = w.Write([]byte(`[
			{"container":"C-01","rack":"R1","level":"L1","item_code":"bolt-10","description":"Hex bolt","uom":"pcs","quantity":40,"department":"Tools"},
			{"container":"C-02","rack":null,"level":"L2","item_code":null,"description":null,"uom":"box","quantity":2.5,"department":null},
			{"container":"C-03","rack":"R","level":"L","item_code":"x","description":"d","uom":"pcs","quantity":null,"department":null}
		]`))
	})

	records, err := client.ListRecords(context.Background(), 0, 9999)

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "bolt-10", records[0].ItemCodeValue())
	q, ok := records[0].QuantityValue()
	assert.True(t, ok)
	assert.Equal(t, 40.0, q)
	assert.Nil(t, records[2].Quantity)
	assert.Equal(t, "", records[1].Rack)
	assert.Nil(t, records[1].ItemCode)
	assert.Nil(t, records[1].Department)
}

func TestListRecords_EmptyTable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	records, err := client.ListRecords(context.Background(), 0, 9999)

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListRecords_ErrorStatus(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"PGRST301","message":"JWT expired"}`))
	})

	records, err := client.ListRecords(context.Background(), 0, 9999)

	assert.Nil(t, records)
	assert.ErrorContains(t, err, "JWT expired")
	assert.ErrorContains(t, err, "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestListRecords_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListRecords(ctx, 0, 9999)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_RequiresURLAndKey(t *testing.T) {
	_, err := NewClient(Config{URL: "http://localhost"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)

	client, err := NewClient(Config{URL: "http://localhost", Key: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, client.table)
}
