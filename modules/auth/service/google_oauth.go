package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
)

var googleOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/calendar.events",
}

// OAuthExchanger is the slice of the OAuth client used by the authorization
// flow and the credential provider. Implementations are constructed per call
// from configuration; there is no shared client state.
type OAuthExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource
}

// ExchangerFactory builds a fresh exchanger, failing when the OAuth client is
// not configured.
type ExchangerFactory func() (OAuthExchanger, error)

type googleExchanger struct {
	cfg *oauth2.Config
}

// NewGoogleExchanger returns the production exchanger backed by the
// configured Google OAuth client.
func NewGoogleExchanger() (OAuthExchanger, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}
	if cfg.GoogleAPI.ClientID == "" || cfg.GoogleAPI.ClientSecret == "" || cfg.GoogleAPI.RedirectURI == "" {
		return nil, fmt.Errorf("Google OAuth client is not configured")
	}

	return &googleExchanger{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleAPI.ClientID,
			ClientSecret: cfg.GoogleAPI.ClientSecret,
			RedirectURL:  cfg.GoogleAPI.RedirectURI,
			Scopes:       googleOAuthScopes,
			Endpoint:     google.Endpoint,
		},
	}, nil
}

// AuthCodeURL requests offline access with forced consent so that a refresh
// token is issued even on re-consent.
func (g *googleExchanger) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *googleExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.cfg.Exchange(ctx, code)
}

func (g *googleExchanger) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return g.cfg.TokenSource(ctx, token)
}

// IdentityClaims is the verified content of a provider identity token.
type IdentityClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// IdentityVerifier validates an identity token and returns its claims. The
// claims are only trusted after verification.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*IdentityClaims, error)
}

type googleTokenInfo struct {
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
}

type tokenInfoVerifier struct {
	endpoint string
	client   *http.Client
}

// NewGoogleIdentityVerifier verifies identity tokens against Google's
// tokeninfo endpoint, checking audience and issuer.
func NewGoogleIdentityVerifier() IdentityVerifier {
	return &tokenInfoVerifier{
		endpoint: "https://oauth2.googleapis.com/tokeninfo",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *tokenInfoVerifier) Verify(ctx context.Context, idToken string) (*IdentityClaims, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}

	reqURL := v.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to verify identity token: %s", string(body))
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}

	if info.Aud != cfg.GoogleAPI.ClientID {
		return nil, fmt.Errorf("identity token audience does not match client id")
	}
	if info.Iss != "https://accounts.google.com" && info.Iss != "accounts.google.com" {
		return nil, fmt.Errorf("invalid identity token issuer")
	}

	return &IdentityClaims{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
	}, nil
}
