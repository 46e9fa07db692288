package store_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sleighlabs/nicelist/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSanityStore(t *testing.T, handler http.HandlerFunc) *store.Sanity {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return store.NewSanityWithBaseURL(srv.URL, "production", "test-token", zap.NewNop())
}

func TestSanityFind(t *testing.T) {
	t.Parallel()

	t.Run("existing document", func(t *testing.T) {
		t.Parallel()

		sanity := newSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/query/production", r.URL.Path)
			assert.Contains(t, r.URL.Query().Get("query"), `_type == "child"`)
			assert.Equal(t, `"santa"`, r.URL.Query().Get("$handle"))
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			_, _ = w.Write([]byte(`{"result": {"_id": "doc-1", "_type": "child", "handle": "santa", "status": "nice", "score": 95}}`))
		})

		record, err := sanity.Find(t.Context(), "santa")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "doc-1", record.ID)
		assert.Equal(t, "santa", record.Handle)
		assert.Equal(t, store.StatusNice, record.Status)
		assert.InDelta(t, 95, record.Score, 0.001)
	})

	t.Run("missing document is nil not error", func(t *testing.T) {
		t.Parallel()

		sanity := newSanityStore(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"result": null}`))
		})

		record, err := sanity.Find(t.Context(), "nobody")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		t.Parallel()

		sanity := newSanityStore(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := sanity.Find(t.Context(), "santa")
		require.Error(t, err)
	})
}

func TestSanityCreate(t *testing.T) {
	t.Parallel()

	sanity := newSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/data/mutate/production", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("returnIds"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"create"`)
		assert.Contains(t, string(body), `"_type":"child"`)
		assert.Contains(t, string(body), `"handle":"santa"`)

		_, _ = w.Write([]byte(`{"transactionId": "tx-1", "results": [{"id": "doc-42", "operation": "create"}]}`))
	})

	id, err := sanity.Create(t.Context(), &store.Record{
		Handle: "santa",
		Status: store.StatusNice,
		Score:  80,
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-42", id)
}

func TestSanityPatch(t *testing.T) {
	t.Parallel()

	t.Run("sets only mutable fields", func(t *testing.T) {
		t.Parallel()

		sanity := newSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			payload := string(body)
			assert.Contains(t, payload, `"patch"`)
			assert.Contains(t, payload, `"id":"doc-42"`)
			assert.Contains(t, payload, `"status":"naughty"`)
			assert.False(t, strings.Contains(payload, `"handle"`))

			_, _ = w.Write([]byte(`{"transactionId": "tx-2", "results": [{"id": "doc-42", "operation": "update"}]}`))
		})

		err := sanity.Patch(t.Context(), "doc-42", store.StatusNaughty, 20)
		require.NoError(t, err)
	})

	t.Run("rejected mutation surfaces", func(t *testing.T) {
		t.Parallel()

		sanity := newSanityStore(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error": "document is locked"}`))
		})

		err := sanity.Patch(t.Context(), "doc-42", store.StatusNice, 50)
		require.ErrorIs(t, err, store.ErrMutationRejected)
	})
}
