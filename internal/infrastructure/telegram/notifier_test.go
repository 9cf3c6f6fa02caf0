package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("token", "42").WithBaseURL(server.URL + "/")
	require.NoError(t, n.PublishDigest(context.Background(), "2 item(s) published"))

	assert.Equal(t, "/bottoken/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "2 item(s) published", gotText)
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewNotifier("token", "42").WithBaseURL(server.URL).PublishDigest(context.Background(), "hi")
	assert.ErrorContains(t, err, "401")

	err = NewNotifier("", "42").PublishDigest(context.Background(), "hi")
	assert.ErrorContains(t, err, "misconfigured")
}
