package microsoft

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// userInfo is the Graph user resource, trimmed to what the CLI shows.
type userInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// UserService implements driven.UserDirectory.
type UserService struct {
	client *Client
}

// NewUserService creates a UserService.
func NewUserService(client *Client) *UserService {
	return &UserService{client: client}
}

// Me fetches the signed-in user's profile.
func (s *UserService) Me(ctx context.Context) (*domain.UserInfo, error) {
	query := url.Values{"$select": {"id,displayName,mail,userPrincipalName"}}

	var u userInfo
	if err := s.client.Get(ctx, ServiceDirectory, "/me", query, &u); err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	return &domain.UserInfo{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		Mail:              u.Mail,
		UserPrincipalName: u.UserPrincipalName,
	}, nil
}
