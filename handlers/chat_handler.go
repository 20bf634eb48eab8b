package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/codeware/rag-chatbot/services/classifier"
	"github.com/codeware/rag-chatbot/services/rag"
	"github.com/codeware/rag-chatbot/utils"
)

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Question string `json:"question" validate:"required,max=2000"`
}

// Classifier routes a query and answers conversational ones directly.
type Classifier interface {
	Classify(ctx context.Context, query string) classifier.Decision
	DirectResponse(ctx context.Context, query string) string
}

// Answerer runs the retrieval pipeline for document questions.
type Answerer interface {
	Answer(ctx context.Context, question string) (rag.Answer, error)
}

// ChatHandler handles chat HTTP requests. Requests are classified first;
// conversational queries skip retrieval entirely.
type ChatHandler struct {
	classifier Classifier
	answerer   Answerer
	logger     *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(classifier Classifier, answerer Answerer, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		classifier: classifier,
		answerer:   answerer,
		logger:     logger,
	}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.Question = strings.TrimSpace(req.Question)

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	h.logger.Info("chat request",
		zap.String("user_id", req.UserID),
		zap.Int("question_length", len(req.Question)))

	if h.classifier.Classify(r.Context(), req.Question) == classifier.DecisionDirect {
		answer := h.classifier.DirectResponse(r.Context(), req.Question)
		if err := utils.WriteJSON(w, http.StatusOK, rag.Answer{Answer: answer, Sources: []string{}}); err != nil {
			h.logger.Error("failed to write chat response", zap.Error(err))
		}
		return
	}

	answer, err := h.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, answer); err != nil {
		h.logger.Error("failed to write chat response", zap.Error(err))
	}
}
