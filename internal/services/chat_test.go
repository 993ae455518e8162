package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogya-app/arogya/backend/internal/llm"
	"github.com/arogya-app/arogya/backend/internal/models"
)

type fakeContextBuilder struct {
	context   string
	citations []models.Citation
	err       error
}

func (f *fakeContextBuilder) Build(uint, Mode, *uint, string) (string, []models.Citation, error) {
	return f.context, f.citations, f.err
}

type fakeQueryRunner struct {
	citations   []models.Citation
	lastContext string
}

func (f *fakeQueryRunner) Process(_ context.Context, query, userContext string) (string, []models.Citation) {
	f.lastContext = userContext
	return userContext + "\n[evidence for: " + query + "]", f.citations
}

type fakeInvoker struct {
	response   string
	err        error
	calls      int
	lastMax    int
	lastSystem string
}

func (f *fakeInvoker) Invoke(_ context.Context, systemMessage, _ string, _ float64, maxTokens int) (string, string, error) {
	f.calls++
	f.lastMax = maxTokens
	f.lastSystem = systemMessage
	if f.err != nil {
		return "", "", f.err
	}
	return f.response, "groq", nil
}

type fakeChatLogRepo struct {
	created []models.ChatLog
}

func (f *fakeChatLogRepo) Create(log *models.ChatLog) error {
	f.created = append(f.created, *log)
	return nil
}

func (f *fakeChatLogRepo) GetRecentByUser(uint, int) ([]models.ChatLog, error) {
	return f.created, nil
}

func newTestChatService(builder PatientContextBuilder, runner QueryRunner, invoker Invoker) *ChatService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewChatService(builder, runner, invoker, nil, ChatBudget{
		PublicMaxTokens:  600,
		PrivateMaxTokens: 1200,
		Temperature:      0.4,
	}, logger)
}

func TestChatService_PublicTurn(t *testing.T) {
	invoker := &fakeInvoker{response: "Drink fluids and rest."}
	s := newTestChatService(&fakeContextBuilder{}, &fakeQueryRunner{}, invoker)

	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{Query: "how to treat a cold"})

	require.NoError(t, err)
	assert.Equal(t, models.ChatStatusOK, resp.Status)
	assert.Equal(t, "Drink fluids and rest.", resp.Body)
	assert.Equal(t, "groq", resp.ProviderUsed)
	assert.Equal(t, 600, invoker.lastMax)
	assert.NotNil(t, resp.Citations)
	assert.Empty(t, resp.Citations)
	assert.NotContains(t, resp.Body, "**Sources:**")
}

func TestChatService_PrivateTurnUsesLargerBudget(t *testing.T) {
	invoker := &fakeInvoker{response: "Based on your records, continue the prescribed dosage."}
	builder := &fakeContextBuilder{context: "=== Patient Profile ===\nName: Ravi\n"}
	runner := &fakeQueryRunner{}
	s := newTestChatService(builder, runner, invoker)

	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{Query: "my medication", Mode: "private"})

	require.NoError(t, err)
	assert.Equal(t, models.ChatStatusOK, resp.Status)
	assert.Equal(t, 1200, invoker.lastMax)
	assert.Contains(t, runner.lastContext, "Name: Ravi")
}

func TestChatService_UnknownModeFallsBackToPublic(t *testing.T) {
	invoker := &fakeInvoker{response: "General advice."}
	s := newTestChatService(&fakeContextBuilder{}, &fakeQueryRunner{}, invoker)

	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{Query: "hi", Mode: "superuser"})

	require.NoError(t, err)
	assert.Equal(t, 600, invoker.lastMax)
	assert.Equal(t, models.ChatStatusOK, resp.Status)
}

func TestChatService_AllProvidersExhausted(t *testing.T) {
	invoker := &fakeInvoker{err: llm.ErrAllProvidersExhausted}
	runner := &fakeQueryRunner{
		citations: []models.Citation{models.NewWebCitation("Something", "u", "s")},
	}
	s := newTestChatService(&fakeContextBuilder{}, runner, invoker)

	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{Query: "anything"})

	require.NoError(t, err)
	assert.Equal(t, models.ChatStatusUnavailable, resp.Status)
	assert.Equal(t, unavailableMessage, resp.Body)
	// No partial evidence leaks on a degraded turn.
	assert.NotNil(t, resp.Citations)
	assert.Empty(t, resp.Citations)
	assert.Empty(t, resp.ProviderUsed)
}

func TestChatService_AuthorizationErrorPropagates(t *testing.T) {
	builder := &fakeContextBuilder{err: ErrNotAuthorized}
	invoker := &fakeInvoker{response: "never called"}
	s := newTestChatService(builder, &fakeQueryRunner{}, invoker)

	memberID := uint(5)
	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{
		Query:          "her records",
		Mode:           "private",
		FamilyMemberID: &memberID,
	})

	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Nil(t, resp)
	assert.Zero(t, invoker.calls)
}

func TestChatService_ContextFailureDegradesToPublicData(t *testing.T) {
	builder := &fakeContextBuilder{err: errors.New("database unreachable")}
	invoker := &fakeInvoker{response: "General information only."}
	runner := &fakeQueryRunner{}
	s := newTestChatService(builder, runner, invoker)

	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{Query: "question", Mode: "private"})

	require.NoError(t, err)
	assert.Equal(t, models.ChatStatusOK, resp.Status)
	assert.Empty(t, runner.lastContext)
}

func TestChatService_CitationsMergedAndFiltered(t *testing.T) {
	builder := &fakeContextBuilder{
		context:   "profile",
		citations: []models.Citation{models.NewRecordCitation("Fever", "2026-01-02", "complaint", "Ravi")},
	}
	runner := &fakeQueryRunner{
		citations: []models.Citation{
			models.NewReferenceCitation("Harrison's Principles of Internal Medicine", 50, 0.9),
			models.NewReferenceCitation("Weak match", 51, 0.1),
		},
	}
	invoker := &fakeInvoker{response: "Answer."}
	s := newTestChatService(builder, runner, invoker)

	resp, err := s.Ask(context.Background(), 1, models.ChatRequest{Query: "fever", Mode: "private"})

	require.NoError(t, err)
	require.Len(t, resp.Citations, 2)
	assert.Equal(t, models.CitationMedicalRecord, resp.Citations[0].Type)
	assert.Equal(t, models.CitationMedicalReference, resp.Citations[1].Type)

	assert.True(t, strings.HasPrefix(resp.Body, "Answer."))
	assert.Contains(t, resp.Body, "**Sources:**")
	assert.Contains(t, resp.Body, "1. **Fever** (2026-01-02) - complaint | Ravi")
	assert.Contains(t, resp.Body, "2. **Harrison's Principles of Internal Medicine** (90% match) | Local Medical Library")
	assert.NotContains(t, resp.Body, "Weak match")
}
