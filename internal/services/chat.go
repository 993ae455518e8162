package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/llm"
	"github.com/arogya-app/arogya/backend/internal/models"
)

// unavailableMessage is the only text shown to users when every provider
// fails. Provider detail stays in the logs.
const unavailableMessage = "The assistant is temporarily unavailable. Please try again in a few minutes."

// ChatBudget carries the caller-supplied token and temperature limits.
// Private mode gets more room because of the injected record context.
type ChatBudget struct {
	PublicMaxTokens  int
	PrivateMaxTokens int
	Temperature      float64
}

// PatientContextBuilder is the personal-context surface.
// *ContextBuilder implements it.
type PatientContextBuilder interface {
	Build(userID uint, mode Mode, familyMemberID *uint, query string) (string, []models.Citation, error)
}

// QueryRunner is the evidence-gathering surface. *QueryProcessor
// implements it.
type QueryRunner interface {
	Process(ctx context.Context, query, userContext string) (string, []models.Citation)
}

// Invoker is the LLM fallback surface. *llm.Chain implements it.
type Invoker interface {
	Invoke(ctx context.Context, systemMessage, prompt string, temperature float64, maxTokens int) (string, string, error)
}

// ChatService runs one assistant turn end to end: patient context,
// evidence retrieval, provider invocation, post-processing.
type ChatService struct {
	contextBuilder PatientContextBuilder
	queryRunner    QueryRunner
	invoker        Invoker
	chatLogs       models.ChatLogRepository
	budget         ChatBudget
	logger         *logrus.Logger
}

func NewChatService(
	contextBuilder PatientContextBuilder,
	queryRunner QueryRunner,
	invoker Invoker,
	chatLogs models.ChatLogRepository,
	budget ChatBudget,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		contextBuilder: contextBuilder,
		queryRunner:    queryRunner,
		invoker:        invoker,
		chatLogs:       chatLogs,
		budget:         budget,
		logger:         logger,
	}
}

// Ask answers one chat turn. The returned error is non-nil only for
// authorization failures; provider exhaustion is reported through the
// response status, not an error.
func (s *ChatService) Ask(ctx context.Context, userID uint, req models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()

	mode := Mode(req.Mode)
	if mode != ModePrivate {
		mode = ModePublic
	}

	userContext, recordCitations, err := s.contextBuilder.Build(userID, mode, req.FamilyMemberID, req.Query)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return nil, err
		}
		s.logger.WithError(err).Warn("Context building failed, continuing without patient context")
		userContext, recordCitations = "", nil
	}

	enhancedContext, searchCitations := s.queryRunner.Process(ctx, req.Query, userContext)
	citations := append(recordCitations, searchCitations...)

	maxTokens := s.budget.PublicMaxTokens
	if mode == ModePrivate {
		maxTokens = s.budget.PrivateMaxTokens
	}

	raw, provider, err := s.invoker.Invoke(ctx, ChatSystemPrompt(mode), BuildUserPrompt(enhancedContext, req.Query), s.budget.Temperature, maxTokens)
	if err != nil {
		if !errors.Is(err, llm.ErrAllProvidersExhausted) {
			s.logger.WithError(err).Error("Unexpected invoker failure")
		}
		response := &models.ChatResponse{
			Body:           unavailableMessage,
			Citations:      []models.Citation{},
			Status:         models.ChatStatusUnavailable,
			ResponseTimeMs: int(time.Since(start).Milliseconds()),
		}
		s.trackTurn(userID, req, response)
		return response, nil
	}

	response := &models.ChatResponse{
		Body:           PostProcess(raw, citations, SourcesHeader),
		Citations:      FilterCitations(citations),
		ProviderUsed:   provider,
		Status:         models.ChatStatusOK,
		ResponseTimeMs: int(time.Since(start).Milliseconds()),
	}
	if response.Citations == nil {
		response.Citations = []models.Citation{}
	}

	s.logger.WithFields(logrus.Fields{
		"mode":          string(mode),
		"provider":      provider,
		"citations":     len(response.Citations),
		"response_time": response.ResponseTimeMs,
	}).Info("Chat turn completed")

	s.trackTurn(userID, req, response)
	return response, nil
}

// trackTurn writes the analytics row without blocking the request.
func (s *ChatService) trackTurn(userID uint, req models.ChatRequest, response *models.ChatResponse) {
	if s.chatLogs == nil {
		return
	}
	go func() {
		err := s.chatLogs.Create(&models.ChatLog{
			UserID:         userID,
			Query:          req.Query,
			Mode:           req.Mode,
			ProviderUsed:   response.ProviderUsed,
			CitationCount:  len(response.Citations),
			ResponseTimeMs: response.ResponseTimeMs,
			Status:         string(response.Status),
		})
		if err != nil {
			s.logger.WithError(err).Warn("Failed to record chat log")
		}
	}()
}
