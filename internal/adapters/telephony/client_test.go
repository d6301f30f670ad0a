package telephony_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialflow/dialflow/internal/adapters/telephony"
)

func TestTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC1/Calls/CA1", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234", r.PostForm.Get("Transfer"))
	}))
	defer srv.Close()

	client := telephony.New(srv.URL, "AC1", "secret")
	require.NoError(t, client.Transfer(context.Background(), "CA1", "+15551234"))
}

func TestHangup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "completed", r.PostForm.Get("Status"))
	}))
	defer srv.Close()

	client := telephony.New(srv.URL, "AC1", "secret")
	require.NoError(t, client.Hangup(context.Background(), "CA1"))
}

func TestUpdateCall_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such call", http.StatusNotFound)
	}))
	defer srv.Close()

	client := telephony.New(srv.URL, "AC1", "secret")
	err := client.Transfer(context.Background(), "CA1", "+15551234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
