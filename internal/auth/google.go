package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth wraps the federated-login flow: building the consent URL and
// exchanging the callback code for the user's identity.
type GoogleOAuth struct {
	config *oauth2.Config
}

// NewGoogleOAuth configures federated login. Returns nil when the client
// credentials are not set; the handlers then report the feature unavailable.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the Google consent page URL for the given CSRF state.
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// GoogleIdentity is the subset of the userinfo response the app needs.
type GoogleIdentity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades the callback code for the caller's Google identity.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleIdentity, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("Exchange: trading code: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("Exchange: fetching userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Exchange: userinfo returned %d", resp.StatusCode)
	}

	var identity GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("Exchange: decoding userinfo: %w", err)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("Exchange: userinfo has no email")
	}
	return &identity, nil
}
