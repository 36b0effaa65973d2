package collaborators

import (
	"context"
	"net/http"
	"net/url"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"

	"go.uber.org/zap"
)

// AccessClient asks the interview service who may join and who controls an
// interview.
type AccessClient struct {
	*httpClient
}

var _ ports.AccessService = (*AccessClient)(nil)

func NewAccessClient(cfg Config, metrics ports.Metrics, logger *zap.SugaredLogger) *AccessClient {
	return &AccessClient{httpClient: newHTTPClient("access", cfg, metrics, logger)}
}

func (c *AccessClient) JoinInterview(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.JoinResult, error) {
	body := struct {
		UserID domain.UserID `json:"userId"`
	}{UserID: userID}

	var result domain.JoinResult
	path := "/interviews/" + url.PathEscape(interviewID.String()) + "/join"
	if err := c.do(ctx, "join", http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AccessClient) CheckInterviewAccess(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.AccessResult, error) {
	query := url.Values{"userId": []string{userID.String()}}
	path := "/interviews/" + url.PathEscape(interviewID.String()) + "/access?" + query.Encode()

	var result domain.AccessResult
	if err := c.do(ctx, "check_access", http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
