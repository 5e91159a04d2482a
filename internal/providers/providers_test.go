package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/neoflow/campaign-service/internal/cache"
)

func TestResolveURL(t *testing.T) {
	gateway := "https://gateway.pinata.cloud/ipfs/"

	tests := []struct {
		ref      string
		expected string
	}{
		{"", ""},
		{"QmHash", "https://gateway.pinata.cloud/ipfs/QmHash"},
		{"/ipfs/QmHash", "https://gateway.pinata.cloud/ipfs/QmHash"},
		{"https://example.com/a.png", "https://example.com/a.png"},
		{"HTTP://example.com/a.png", "HTTP://example.com/a.png"},
		{"ipfs://QmHash", "ipfs://QmHash"},
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, ResolveURL(gateway, tt.ref), "ref=%q", tt.ref)
	}

	require.Equal(t, "https://gw.example/ipfs/Qm", ResolveURL("https://gw.example/ipfs", "Qm"))
}

func newPinataServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/pinning/pinJSONToIPFS", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "key", r.Header.Get("pinata_api_key"))
		require.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		var body map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Clean Water", body["pinataContent"]["title"])

		_, _ = w.Write([]byte(`{"IpfsHash":"QmJSON","PinSize":42,"Timestamp":"2024-01-01T00:00:00Z"}`))
	})

	mux.HandleFunc("/pinning/pinFileToIPFS", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		require.Equal(t, "cover.png", header.Filename)
		require.Equal(t, "png-bytes", string(data))

		_, _ = w.Write([]byte(`{"IpfsHash":"QmFILE","PinSize":9}`))
	})

	mux.HandleFunc("/data/testAuthentication", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("pinata_api_key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"message":"Congratulations!"}`))
	})

	mux.HandleFunc("/ipfs/QmJSON", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"Clean Water"}`))
	})

	mux.HandleFunc("/ipfs/QmBroken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	return httptest.NewServer(mux)
}

func TestPinataProvider(t *testing.T) {
	server := newPinataServer(t)
	defer server.Close()

	p := NewPinataProvider(server.URL, server.URL+"/ipfs/", "key", "secret", time.Second)
	ctx := context.Background()

	cid, err := p.PutJSON(ctx, map[string]string{"title": "Clean Water"})
	require.NoError(t, err)
	require.Equal(t, "QmJSON", cid)

	cid, err = p.PutFile(ctx, "cover.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "QmFILE", cid)

	data, err := p.Get(ctx, "QmJSON")
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Clean Water"}`, string(data))

	_, err = p.Get(ctx, "QmMissing")
	require.ErrorIs(t, err, ErrContentNotFound)

	_, err = p.Get(ctx, "QmBroken")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrContentNotFound))

	require.NoError(t, p.HealthCheck(ctx))
	require.Error(t, NewPinataProvider(server.URL, server.URL, "wrong", "secret", time.Second).HealthCheck(ctx))
	require.Equal(t, server.URL+"/ipfs/QmJSON", p.URL("QmJSON"))
}

func TestMockContentStore(t *testing.T) {
	ctx := context.Background()
	store := NewMockContentStore("https://gateway.pinata.cloud/ipfs/")

	first, err := store.PutJSON(ctx, map[string]string{"title": "a"})
	require.NoError(t, err)
	second, err := store.PutJSON(ctx, map[string]string{"title": "a"})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.True(t, strings.HasPrefix(first, "demo_"))

	data, err := store.Get(ctx, first)
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"a"}`, string(data))

	_, err = store.Get(ctx, "unknown")
	require.ErrorIs(t, err, ErrContentNotFound)
}

type countingStore struct {
	*MockContentStore
	gets int32
}

func (c *countingStore) Get(ctx context.Context, cid string) ([]byte, error) {
	atomic.AddInt32(&c.gets, 1)
	return c.MockContentStore.Get(ctx, cid)
}

func TestCachedContentStore(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{MockContentStore: NewMockContentStore("https://gw/ipfs/")}
	backend.Seed("QmA", []byte(`{"title":"A"}`))

	store := NewCachedContentStore(backend, cache.NewInMemoryCache(), time.Hour)

	for i := 0; i < 3; i++ {
		data, err := store.Get(ctx, "QmA")
		require.NoError(t, err)
		require.Equal(t, `{"title":"A"}`, string(data))
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&backend.gets))

	_, err := store.Get(ctx, "QmMissing")
	require.ErrorIs(t, err, ErrContentNotFound)

	cid, err := store.PutJSON(ctx, map[string]string{"title": "B"})
	require.NoError(t, err)
	_, err = store.Get(ctx, cid)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&backend.gets))
	require.Equal(t, "https://gw/ipfs/"+cid, store.URL(cid))
}
