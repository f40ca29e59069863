package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
)

var (
	// ErrGeneration wraps failures of the remote model after all retries.
	ErrGeneration = errors.New("answer generation failed")
	// ErrEmptyResponse is returned when the model answers with blank text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Service answers questions about a document through a chat model.
type Service struct {
	chatModel model.BaseChatModel
	retry     RetryPolicy
	logger    *logrus.Logger
}

func NewService(chatModel model.BaseChatModel, retry RetryPolicy, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{chatModel: chatModel, retry: retry, logger: logger}
}

// Answer sends one user message built from question and docText and returns
// the model's reply. Failed calls are retried according to the retry policy.
func (s *Service) Answer(ctx context.Context, question, docText string) (string, error) {
	if s.chatModel == nil {
		return "", fmt.Errorf("%w: chat model not configured", ErrGeneration)
	}
	messages := []*schema.Message{schema.UserMessage(BuildPrompt(question, docText))}

	var answer string
	err := s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		resp, err := s.chatModel.Generate(ctx, messages)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"attempt": attempt}).WithError(err).Warn("model call failed")
			return err
		}
		if resp == nil || strings.TrimSpace(resp.Content) == "" {
			return Permanent(ErrEmptyResponse)
		}
		answer = resp.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}
