package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"assistant-client/internal/metrics"
	"assistant-client/internal/model"
	"assistant-client/internal/render"
	"assistant-client/internal/storage"
	"assistant-client/pkg/logger"

	"github.com/google/uuid"
)

// MsgQueryFailed is the only thing users see when a query fails.
const MsgQueryFailed = "Sorry, I encountered an error processing your question. Please try again."

var (
	ErrEmptyQuery  = errors.New("query is empty")
	ErrQueryFailed = errors.New("query failed")
)

// AssistantAPI is the part of the API client the chat service drives.
type AssistantAPI interface {
	CreateSession(ctx context.Context, req model.SessionCreateRequest) (string, error)
	Query(ctx context.Context, req model.QueryRequest) (*model.QueryResponse, error)
}

// Recorder receives query lifecycle events; metrics.Metrics implements it.
type Recorder interface {
	QueryStarted()
	QueryFinished(outcome string, confidence float64)
	QueryRejected(outcome string)
}

type Options struct {
	UserID     string
	Platform   string
	MaxResults int
	Storage    storage.Storage
	Recorder   Recorder
}

// ChatService is the client context of one conversation: the session id,
// the running statistics, the submit state machine and the transcript.
type ChatService struct {
	api      AssistantAPI
	storage  storage.Storage
	recorder Recorder
	opts     Options

	machine SubmitMachine

	mu        sync.RWMutex
	sessionID string
	stats     model.SessionStats

	now func() time.Time
}

func NewChatService(api AssistantAPI, opts Options) *ChatService {
	if opts.UserID == "" {
		opts.UserID = "frontend_user"
	}
	if opts.Platform == "" {
		opts.Platform = "web"
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewMemoryStorage()
	}

	return &ChatService{
		api:      api,
		storage:  opts.Storage,
		recorder: opts.Recorder,
		opts:     opts,
		now:      time.Now,
	}
}

// EstablishSession asks the API for a session id once. Failure is logged and
// the service carries on without one; the API then generates ids per query.
func (s *ChatService) EstablishSession(ctx context.Context) {
	logger.Info("Creating conversation session...")

	id, err := s.api.CreateSession(ctx, model.SessionCreateRequest{
		UserID:   s.opts.UserID,
		Platform: s.opts.Platform,
	})
	if err != nil {
		logger.Errorf("Error creating session: %v", err)
		logger.Warn("Continuing without session tracking")
		return
	}

	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()

	logger.Infof("Session created successfully: %s", id)
}

func (s *ChatService) SessionID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessionID, s.sessionID != ""
}

// Submit sends one query and appends its entries to the transcript. It
// returns the assistant entry on success, or the generic error entry
// together with an error wrapping ErrQueryFailed. Empty queries return
// ErrEmptyQuery and a concurrent call returns ErrBusy; neither touches the
// transcript or the network.
func (s *ChatService) Submit(ctx context.Context, query string) (*model.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.reject(metrics.OutcomeEmpty)
		return nil, ErrEmptyQuery
	}

	if err := s.machine.Begin(); err != nil {
		s.reject(metrics.OutcomeBusy)
		return nil, err
	}
	defer s.machine.End()

	s.addEntry(model.RoleUser, query, render.Text(query), nil)

	if s.recorder != nil {
		s.recorder.QueryStarted()
	}

	req := model.QueryRequest{
		Query:             query,
		IncludeCitations:  true,
		IncludeConfidence: true,
		MaxResults:        s.opts.MaxResults,
	}
	if id, ok := s.SessionID(); ok {
		req.SessionID = id
		logger.Debugf("Sending query with session ID: %s", id)
	} else {
		logger.Debug("Sending query without session ID (API will auto-generate)")
	}

	resp, err := s.api.Query(ctx, req)
	if err != nil {
		logger.WithFields(logger.Fields{"query_len": len(query)}).Errorf("Error processing query: %v", err)
		if s.recorder != nil {
			s.recorder.QueryFinished(metrics.OutcomeFailure, 0)
		}
		msg := s.addEntry(model.RoleError, MsgQueryFailed, render.Text(MsgQueryFailed), nil)
		return msg, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	msg := s.addEntry(model.RoleAssistant, resp.Answer, render.Response(resp).HTML(), resp)
	s.updateStats(resp.ConfidenceScore)
	if s.recorder != nil {
		s.recorder.QueryFinished(metrics.OutcomeSuccess, resp.ConfidenceScore)
	}

	return msg, nil
}

func (s *ChatService) reject(outcome string) {
	if s.recorder != nil {
		s.recorder.QueryRejected(outcome)
	}
}

func (s *ChatService) addEntry(role model.Role, content string, html template.HTML, resp *model.QueryResponse) *model.Message {
	msg := &model.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		HTML:      html,
		Response:  resp,
		Timestamp: s.now(),
	}
	if err := s.storage.AddMessage(msg); err != nil {
		logger.Errorf("Failed to store %s message: %v", role, err)
	}
	return msg
}

func (s *ChatService) updateStats(confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalQueries++
	s.stats.TotalConfidence += confidence
	s.stats.AvgConfidence = s.stats.TotalConfidence / float64(s.stats.TotalQueries)
}

func (s *ChatService) Stats() model.SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}

func (s *ChatService) State() State {
	return s.machine.State()
}

func (s *ChatService) Transcript() ([]*model.Message, error) {
	return s.storage.GetMessages()
}

// Message looks up one transcript entry; unknown ids return
// storage.ErrMessageNotFound.
func (s *ChatService) Message(id string) (*model.Message, error) {
	return s.storage.GetMessage(id)
}

// ClearTranscript drops every entry and reports how many were removed. The
// session id and statistics are kept.
func (s *ChatService) ClearTranscript() (int, error) {
	n := s.storage.Count()
	if err := s.storage.Clear(); err != nil {
		return 0, fmt.Errorf("failed to clear transcript: %w", err)
	}
	logger.Infof("Cleared %d transcript entries", n)
	return n, nil
}
