package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"assistant-client/internal/apiclient"
	"assistant-client/internal/metrics"
	"assistant-client/internal/model"
	"assistant-client/internal/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	sessionID string
	sessErr   error
	responses []*model.QueryResponse
	queryErr  error
	requests  []model.QueryRequest
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeAPI) CreateSession(context.Context, model.SessionCreateRequest) (string, error) {
	return f.sessionID, f.sessErr
}

func (f *fakeAPI) Query(ctx context.Context, req model.QueryRequest) (*model.QueryResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeAPI) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestSubmitUpdatesStats(t *testing.T) {
	api := &fakeAPI{responses: []*model.QueryResponse{
		{Answer: "first", ConfidenceScore: 0.9},
		{Answer: "second", ConfidenceScore: 0.6},
		{Answer: "third", ConfidenceScore: 0},
	}}
	svc := NewChatService(api, Options{})

	_, err := svc.Submit(context.Background(), "one")
	require.NoError(t, err)
	stats := svc.Stats()
	assert.Equal(t, 1, stats.TotalQueries)
	assert.InDelta(t, 0.9, stats.AvgConfidence, 1e-9)

	_, err = svc.Submit(context.Background(), "two")
	require.NoError(t, err)
	stats = svc.Stats()
	assert.Equal(t, 2, stats.TotalQueries)
	assert.InDelta(t, 0.75, stats.AvgConfidence, 1e-9)

	_, err = svc.Submit(context.Background(), "three")
	require.NoError(t, err)
	stats = svc.Stats()
	assert.Equal(t, 3, stats.TotalQueries)
	assert.InDelta(t, 1.5, stats.TotalConfidence, 1e-9)
	assert.InDelta(t, stats.TotalConfidence/3, stats.AvgConfidence, 1e-9)
}

func TestSubmitTranscriptAndRequest(t *testing.T) {
	api := &fakeAPI{
		sessionID: "sess-1234",
		responses: []*model.QueryResponse{{Answer: "Premium is **$500** [1]", ConfidenceScore: 0.85}},
	}
	svc := NewChatService(api, Options{})
	svc.EstablishSession(context.Background())

	msg, err := svc.Submit(context.Background(), "  what is my premium?  ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Contains(t, string(msg.HTML), "<strong>$500</strong>")
	assert.Contains(t, string(msg.HTML), "confidence-high")

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "what is my premium?", req.Query)
	assert.Equal(t, "sess-1234", req.SessionID)
	assert.True(t, req.IncludeCitations)
	assert.True(t, req.IncludeConfidence)
	assert.Equal(t, 5, req.MaxResults)

	transcript, err := svc.Transcript()
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, model.RoleUser, transcript[0].Role)
	assert.Equal(t, "what is my premium?", transcript[0].Content)
	assert.Equal(t, model.RoleAssistant, transcript[1].Role)
	assert.Equal(t, StateReady, svc.State())
}

func TestSubmitEmptyQueryIsNoop(t *testing.T) {
	api := &fakeAPI{}
	m := metrics.New()
	svc := NewChatService(api, Options{Recorder: m})

	for _, q := range []string{"", "   ", "\n\t "} {
		msg, err := svc.Submit(context.Background(), q)
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}

	transcript, err := svc.Transcript()
	require.NoError(t, err)
	assert.Empty(t, transcript)
	assert.Equal(t, 0, api.queryCount())
	assert.Equal(t, 0, svc.Stats().TotalQueries)
}

func TestSubmitFailureAddsOneErrorEntry(t *testing.T) {
	api := &fakeAPI{queryErr: errors.New("connection reset by peer")}
	svc := NewChatService(api, Options{})

	msg, err := svc.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryFailed)
	require.NotNil(t, msg)
	assert.Equal(t, model.RoleError, msg.Role)
	assert.Equal(t, MsgQueryFailed, msg.Content)
	assert.NotContains(t, string(msg.HTML), "connection reset")

	transcript, _ := svc.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, model.RoleUser, transcript[0].Role)
	assert.Equal(t, model.RoleError, transcript[1].Role)

	assert.Equal(t, StateReady, svc.State())
	assert.Equal(t, 0, svc.Stats().TotalQueries)
}

func TestSubmitRejectsReentrantCall(t *testing.T) {
	api := &fakeAPI{
		responses: []*model.QueryResponse{{Answer: "done", ConfidenceScore: 0.5}},
		block:     make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	m := metrics.New()
	svc := NewChatService(api, Options{Recorder: m})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "first")
		done <- err
	}()

	<-api.entered
	assert.Equal(t, StateAwaitingResponse, svc.State())

	msg, err := svc.Submit(context.Background(), "second")
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, ErrBusy)

	close(api.block)
	require.NoError(t, <-done)

	transcript, _ := svc.Transcript()
	assert.Len(t, transcript, 2)
	assert.Equal(t, 1, api.queryCount())
	assert.Equal(t, StateReady, svc.State())

	out, err := testutil.GatherAndCount(m.Registry(), "assistant_client_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, out) // busy + success series
}

func TestSessionFailureStillQueriesWithoutSessionID(t *testing.T) {
	var mu sync.Mutex
	var bodies []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiclient.PathSession:
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"Conversation service unavailable"}`))
		case apiclient.PathQuery:
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			bodies = append(bodies, body)
			mu.Unlock()
			w.Write([]byte(`{"answer":"You are covered.","confidence_score":0.7,"citations":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := NewChatService(apiclient.New(server.URL, time.Second), Options{})
	svc.EstablishSession(context.Background())

	_, ok := svc.SessionID()
	assert.False(t, ok)

	msg, err := svc.Submit(context.Background(), "am I covered?")
	require.NoError(t, err)
	assert.Equal(t, "You are covered.", msg.Content)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	_, present := bodies[0]["session_id"]
	assert.False(t, present)
	assert.Equal(t, 1, svc.Stats().TotalQueries)
}

func TestNetworkFailureReturnsToReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	svc := NewChatService(apiclient.New(url, time.Second), Options{})

	_, err := svc.Submit(context.Background(), "hello")
	require.ErrorIs(t, err, ErrQueryFailed)

	transcript, _ := svc.Transcript()
	errorEntries := 0
	for _, m := range transcript {
		if m.Role == model.RoleError {
			errorEntries++
		}
	}
	assert.Equal(t, 1, errorEntries)
	assert.Equal(t, StateReady, svc.State())

	// the client stays usable after a failure
	_, err = svc.Submit(context.Background(), "again")
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestUpstreamErrorIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"vector store timeout"}`))
	}))
	defer server.Close()

	svc := NewChatService(apiclient.New(server.URL, time.Second), Options{})
	msg, err := svc.Submit(context.Background(), "hello")

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "vector store timeout", apiErr.Message)
	assert.NotContains(t, msg.Content, "vector store")
}

func TestNullAnswerBodyIsAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer server.Close()

	svc := NewChatService(apiclient.New(server.URL, time.Second), Options{})
	msg, err := svc.Submit(context.Background(), "hello")

	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, apiclient.ErrMalformedResponse)
	require.NotNil(t, msg)
	assert.Equal(t, model.RoleError, msg.Role)
	assert.Equal(t, 0, svc.Stats().TotalQueries)
	assert.Equal(t, StateReady, svc.State())
}

func TestMessageLookupAndClearTranscript(t *testing.T) {
	api := &fakeAPI{responses: []*model.QueryResponse{{Answer: "done", ConfidenceScore: 0.6}}}
	svc := NewChatService(api, Options{})

	msg, err := svc.Submit(context.Background(), "hello")
	require.NoError(t, err)

	got, err := svc.Message(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.Content)

	_, err = svc.Message("missing")
	assert.ErrorIs(t, err, storage.ErrMessageNotFound)

	n, err := svc.ClearTranscript()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	transcript, _ := svc.Transcript()
	assert.Empty(t, transcript)
	assert.Equal(t, 1, svc.Stats().TotalQueries)
}
