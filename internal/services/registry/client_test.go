package registry_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hydrogen-admin/internal/services/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"stores":[{"store_id":"s1","storeName":"Pets","storeUrl":"https://pets.myshopify.com","status":"ACTIVE"}]}`)
	}))
	defer server.Close()

	stores, err := registry.NewClient(server.URL).Stores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "s1", stores[0].StoreID)
	assert.Equal(t, "Pets", stores[0].StoreName)
	assert.Equal(t, "https://pets.myshopify.com", stores[0].StoreURL)
}

func TestStoresErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := registry.NewClient(server.URL).Stores(context.Background())
	assert.ErrorContains(t, err, "502")
}

func TestEnabled(t *testing.T) {
	assert.False(t, registry.NewClient("").Enabled())
	var c *registry.Client
	assert.False(t, c.Enabled())
}
