package rest_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sleighlabs/nicelist/internal/ai"
	"github.com/sleighlabs/nicelist/internal/cache"
	"github.com/sleighlabs/nicelist/internal/checker"
	"github.com/sleighlabs/nicelist/internal/rest"
	"github.com/sleighlabs/nicelist/internal/rest/types"
	"github.com/sleighlabs/nicelist/internal/social"
	"github.com/sleighlabs/nicelist/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSocial struct {
	profile    *social.Profile
	posts      []social.Post
	profileErr error
	postsErr   error
}

func (f *fakeSocial) FetchProfile(_ context.Context, _ string) (*social.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}

	return f.profile, nil
}

func (f *fakeSocial) FetchPosts(_ context.Context, _ string) ([]social.Post, error) {
	if f.postsErr != nil {
		return nil, f.postsErr
	}

	return f.posts, nil
}

type fakeClassifier struct {
	classification *ai.Classification
	err            error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, _ []social.Post) (*ai.Classification, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.classification, nil
}

type fakeStatusStore struct {
	mu      sync.Mutex
	records map[string]*store.Record
	nextID  int
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{records: make(map[string]*store.Record)}
}

func (f *fakeStatusStore) Find(_ context.Context, handle string) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[handle]
	if !ok {
		return nil, nil
	}

	clone := *record

	return &clone, nil
}

func (f *fakeStatusStore) Create(_ context.Context, record *store.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	clone := *record
	clone.ID = string(rune('a' + f.nextID))
	f.records[record.Handle] = &clone

	return clone.ID, nil
}

func (f *fakeStatusStore) Patch(_ context.Context, id, status string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if record.ID == id {
			record.Status = status
			record.Score = score

			return nil
		}
	}

	return nil
}

func testPosts() []social.Post {
	return []social.Post{
		{ID: "100", Text: "baked cookies for the block", CreatedAt: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC), Favorites: 12},
		{ID: "101", Text: "stole the neighbor's wreath", CreatedAt: time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC), Replies: 3},
	}
}

func newTestServer(t *testing.T, socialAPI checker.SocialAPI, classifier checker.Classifier) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	service := store.NewService(newFakeStatusStore(), logger)
	verdicts := cache.NewMemory[*checker.Verdict](logger)
	chk := checker.New(socialAPI, classifier, service, verdicts, time.Hour, logger)

	srv := httptest.NewServer(rest.NewServer(chk, service, logger))
	t.Cleanup(srv.Close)

	return srv
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var out T
	require.NoError(t, sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&out))

	return out
}

func postJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	encoded, err := sonic.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(encoded))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func TestGetCheck(t *testing.T) {
	t.Parallel()

	socialAPI := &fakeSocial{
		profile: &social.Profile{Handle: "kris", DisplayName: "Kris K.", AvatarURL: "https://img.example/kris.png"},
		posts:   testPosts(),
	}
	classifier := &fakeClassifier{
		classification: &ai.Classification{
			MostPositivePostID: "100",
			MostNegativePostID: "101",
			Rating:             ai.RatingNice,
			Score:              82,
		},
	}

	srv := newTestServer(t, socialAPI, classifier)

	resp, err := http.Get(srv.URL + "/v1/checks/kris")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[types.CheckResponse](t, resp)
	assert.Equal(t, "kris", body.Handle)
	assert.Equal(t, "Kris K.", body.DisplayName)
	assert.Len(t, body.Posts, 2)
	assert.Equal(t, "100", body.NicestPost.ID)
	assert.Equal(t, "101", body.NaughtiestPost.ID)
	assert.Equal(t, "https://x.com/kris/status/100", body.NicestPost.URL)
	assert.Equal(t, ai.RatingNice, body.Rating)
	assert.InEpsilon(t, 82.0, body.Score, 0.001)
	assert.Equal(t, store.StatusUnknown, body.CurrentStatus)
	assert.Zero(t, body.CurrentScore)
}

func TestGetCheckErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		social     *fakeSocial
		classifier *fakeClassifier
		wantStatus int
	}{
		{
			name:       "profile not found",
			social:     &fakeSocial{profileErr: social.ErrProfileNotFound, posts: testPosts()},
			classifier: &fakeClassifier{},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "rate limited",
			social:     &fakeSocial{profile: &social.Profile{Handle: "kris"}, postsErr: social.ErrRateLimited},
			classifier: &fakeClassifier{},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:   "classifier failure",
			social: &fakeSocial{profile: &social.Profile{Handle: "kris"}, posts: testPosts()},
			classifier: &fakeClassifier{
				err: ai.ErrModelResponse,
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "upstream timeout",
			social:     &fakeSocial{profileErr: social.ErrRequestTimeout, posts: testPosts()},
			classifier: &fakeClassifier{},
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, tt.social, tt.classifier)

			resp, err := http.Get(srv.URL + "/v1/checks/kris")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody[types.ErrorResponse](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetCheckHidesInternalDetails(t *testing.T) {
	t.Parallel()

	socialAPI := &fakeSocial{profile: &social.Profile{Handle: "kris"}, posts: testPosts()}
	classifier := &fakeClassifier{err: ai.ErrModelResponse}

	srv := newTestServer(t, socialAPI, classifier)

	resp, err := http.Get(srv.URL + "/v1/checks/kris")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[types.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), body.Error)
}

func TestPutStatus(t *testing.T) {
	t.Parallel()

	socialAPI := &fakeSocial{profile: &social.Profile{Handle: "kris"}, posts: testPosts()}
	classifier := &fakeClassifier{
		classification: &ai.Classification{
			MostPositivePostID: "100",
			MostNegativePostID: "101",
			Rating:             ai.RatingNaughty,
			Score:              30,
		},
	}

	srv := newTestServer(t, socialAPI, classifier)

	resp := postJSON(t, http.MethodPut, srv.URL+"/v1/status", types.StatusRequest{
		Handle: "@kris",
		Status: store.StatusNice,
		Score:  80,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[types.StatusResponse](t, resp)
	assert.Equal(t, "kris", body.Handle)
	assert.Equal(t, store.StatusNice, body.Status)
	assert.InEpsilon(t, 80.0, body.Score, 0.001)

	// The override shows up beside an unchanged classification
	checkResp, err := http.Get(srv.URL + "/v1/checks/kris")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, checkResp.StatusCode)

	check := decodeBody[types.CheckResponse](t, checkResp)
	assert.Equal(t, store.StatusNice, check.CurrentStatus)
	assert.InEpsilon(t, 80.0, check.CurrentScore, 0.001)
	assert.Equal(t, ai.RatingNaughty, check.Rating)
	assert.InEpsilon(t, 30.0, check.Score, 0.001)
}

func TestPutStatusValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeSocial{}, &fakeClassifier{})

	tests := []struct {
		name string
		body types.StatusRequest
	}{
		{name: "unknown status value", body: types.StatusRequest{Handle: "kris", Status: "grinch", Score: 10}},
		{name: "empty handle", body: types.StatusRequest{Handle: "  @ ", Status: store.StatusNice, Score: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := postJSON(t, http.MethodPut, srv.URL+"/v1/status", tt.body)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestPostSwipe(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeSocial{}, &fakeClassifier{})

	// First swipe starts from the zero score
	resp := postJSON(t, http.MethodPost, srv.URL+"/v1/swipes", types.SwipeRequest{Handle: "kris", Direction: store.SwipeRight})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[types.StatusResponse](t, resp)
	assert.Equal(t, store.StatusNaughty, body.Status)
	assert.InEpsilon(t, 5.0, body.Score, 0.001)

	resp = postJSON(t, http.MethodPost, srv.URL+"/v1/swipes", types.SwipeRequest{Handle: "kris", Direction: store.SwipeLeft})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body = decodeBody[types.StatusResponse](t, resp)
	assert.Equal(t, store.StatusNaughty, body.Status)
	assert.Zero(t, body.Score)
}

func TestPostSwipeInvalidDirection(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeSocial{}, &fakeClassifier{})

	resp := postJSON(t, http.MethodPost, srv.URL+"/v1/swipes", types.SwipeRequest{Handle: "kris", Direction: "up"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeSocial{}, &fakeClassifier{})

	resp := postJSON(t, http.MethodPost, srv.URL+"/v1/swipes", types.SwipeRequest{Handle: "kris", Direction: store.SwipeRight})
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
