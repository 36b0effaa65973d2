package collaborators

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"

	"go.uber.org/zap"
)

var errEmptyChatResponse = errors.New("chat service returned no message")

type ChatClient struct {
	*httpClient
}

var _ ports.ChatStore = (*ChatClient)(nil)

func NewChatClient(cfg Config, metrics ports.Metrics, logger *zap.SugaredLogger) *ChatClient {
	return &ChatClient{httpClient: newHTTPClient("chat", cfg, metrics, logger)}
}

func (c *ChatClient) PersistChatMessage(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID, content string) (*domain.ChatMessage, error) {
	body := struct {
		UserID  domain.UserID `json:"userId"`
		Content string        `json:"content"`
	}{UserID: userID, Content: content}

	var resp struct {
		Message *domain.ChatMessage `json:"message"`
	}
	path := "/interviews/" + url.PathEscape(interviewID.String()) + "/messages"
	if err := c.do(ctx, "persist_message", http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Message == nil {
		return nil, errEmptyChatResponse
	}
	return resp.Message, nil
}
