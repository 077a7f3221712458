package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/navia-app/navia/config"
	"github.com/navia-app/navia/models"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	ErrProviderDisabled    = errors.New("oauth provider not configured")
)

// OAuthProviders builds oauth2 configs for the enabled providers and resolves identities.
type OAuthProviders struct {
	cfg       config.OAuthConfig
	githubAPI string
	googleAPI string
}

func NewOAuthProviders(cfg config.OAuthConfig) *OAuthProviders {
	return &OAuthProviders{
		cfg:       cfg,
		githubAPI: "https://api.github.com",
		googleAPI: "https://www.googleapis.com",
	}
}

// Config returns the oauth2 config of provider.
func (o *OAuthProviders) Config(provider string) (*oauth2.Config, error) {
	base := strings.TrimRight(o.cfg.RedirectBase, "/")
	switch strings.ToLower(provider) {
	case models.LoginGitHub:
		if o.cfg.GitHubClientID == "" || o.cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("%w: github", ErrProviderDisabled)
		}
		return &oauth2.Config{
			ClientID:     o.cfg.GitHubClientID,
			ClientSecret: o.cfg.GitHubClientSecret,
			RedirectURL:  base + "/api/v1/auth/oauth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case models.LoginGoogle:
		if o.cfg.GoogleClientID == "" || o.cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("%w: google", ErrProviderDisabled)
		}
		return &oauth2.Config{
			ClientID:     o.cfg.GoogleClientID,
			ClientSecret: o.cfg.GoogleClientSecret,
			RedirectURL:  base + "/api/v1/auth/oauth/google/callback",
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// Identity fetches the provider's profile of the token owner.
func (o *OAuthProviders) Identity(ctx context.Context, provider string, client *http.Client) (*OAuthIdentity, error) {
	switch strings.ToLower(provider) {
	case models.LoginGitHub:
		return o.githubIdentity(ctx, client)
	case models.LoginGoogle:
		return o.googleIdentity(ctx, client)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

func (o *OAuthProviders) githubIdentity(ctx context.Context, client *http.Client) (*OAuthIdentity, error) {
	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}
	if err := getJSON(ctx, client, o.githubAPI+"/user", &payload); err != nil {
		return nil, fmt.Errorf("github user info: %w", err)
	}

	email := payload.Email
	if email == "" {
		// the profile email is empty when the user keeps it private
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, o.githubAPI+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
			if email == "" && len(emails) > 0 {
				email = emails[0].Email
			}
		}
	}

	return &OAuthIdentity{
		Provider:    models.LoginGitHub,
		ID:          fmt.Sprintf("%d", payload.ID),
		Username:    payload.Login,
		DisplayName: fallback(payload.Name, payload.Login),
		Email:       email,
		AvatarURL:   payload.AvatarURL,
	}, nil
}

func (o *OAuthProviders) googleIdentity(ctx context.Context, client *http.Client) (*OAuthIdentity, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, o.googleAPI+"/oauth2/v2/userinfo", &payload); err != nil {
		return nil, fmt.Errorf("google user info: %w", err)
	}
	username, _, _ := strings.Cut(payload.Email, "@")
	return &OAuthIdentity{
		Provider:    models.LoginGoogle,
		ID:          payload.ID,
		Username:    fallback(username, payload.Name),
		DisplayName: payload.Name,
		Email:       payload.Email,
		AvatarURL:   payload.Picture,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fallback(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
