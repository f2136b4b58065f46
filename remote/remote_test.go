package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/homegate/remote"
)

func TestLoginReturnsToken(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`"remote-token"`))
	}))
	defer server.Close()

	authority := remote.NewHTTPAuthority(5 * time.Second)
	token, err := authority.Login(context.Background(), server.URL, "alice", "hash", []string{"/appdata/notes"})
	assert.NoError(t, err)
	assert.Equal(t, "remote-token", token)
	assert.Equal(t, "alice", gotBody["username"])
	assert.Equal(t, []any{"/appdata/notes"}, gotBody["scopes"])
}

func TestMintSessionPlainTextToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/mint-session", r.URL.Path)
		w.Write([]byte("minted-token\n"))
	}))
	defer server.Close()

	authority := remote.NewHTTPAuthority(5 * time.Second)
	token, err := authority.MintSession(context.Background(), server.URL, "master-key", []string{"db.notes"})
	assert.NoError(t, err)
	assert.Equal(t, "minted-token", token)
}

func TestRemoteErrorIsSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key revoked", http.StatusForbidden)
	}))
	defer server.Close()

	authority := remote.NewHTTPAuthority(5 * time.Second)
	_, err := authority.MintSession(context.Background(), server.URL, "master-key", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "key revoked")
	assert.Contains(t, err.Error(), "403")
}
