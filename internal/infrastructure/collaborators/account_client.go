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

type AccountClient struct {
	*httpClient
}

var _ ports.AccountDirectory = (*AccountClient)(nil)

func NewAccountClient(cfg Config, metrics ports.Metrics, logger *zap.SugaredLogger) *AccountClient {
	return &AccountClient{httpClient: newHTTPClient("accounts", cfg, metrics, logger)}
}

type account struct {
	ID     domain.UserID `json:"id"`
	Name   string        `json:"name"`
	Role   domain.Role   `json:"role"`
	Active bool          `json:"active"`
}

func (c *AccountClient) LookupAccount(ctx context.Context, userID domain.UserID) (domain.Identity, error) {
	var acc account
	err := c.do(ctx, "lookup", http.MethodGet, "/users/"+url.PathEscape(userID.String()), nil, &acc)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return domain.Identity{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}

	if acc.ID == "" {
		acc.ID = userID
	}
	return domain.Identity{
		UserID: acc.ID,
		Name:   acc.Name,
		Role:   acc.Role,
		Active: acc.Active,
	}, nil
}
