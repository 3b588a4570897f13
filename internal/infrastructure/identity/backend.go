// Package identity is the portal's identity provider. A single Backend owns
// account storage, browser sessions and the Google OAuth configuration; every
// browser session talks to it through its own Client.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

const (
	defaultGoogleAuthURL      = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL     = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

	minPasswordLength = 6
)

// GoogleConfig configures the federated provider. The URL fields default to
// Google's endpoints and exist so tests can point them elsewhere.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	TokenInfoURL string
}

type Backend struct {
	accounts     ports.AccountRepository
	sessions     ports.SessionStore
	states       ports.StateStore
	oauth        *oauth2.Config
	userInfoURL  string
	tokenInfoURL string
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewBackend(
	accounts ports.AccountRepository,
	sessions ports.SessionStore,
	states ports.StateStore,
	google GoogleConfig,
	log zerolog.Logger,
) *Backend {
	if google.AuthURL == "" {
		google.AuthURL = defaultGoogleAuthURL
	}
	if google.TokenURL == "" {
		google.TokenURL = defaultGoogleTokenURL
	}
	if google.UserInfoURL == "" {
		google.UserInfoURL = defaultGoogleUserInfoURL
	}
	if google.TokenInfoURL == "" {
		google.TokenInfoURL = defaultGoogleTokenInfoURL
	}

	return &Backend{
		accounts: accounts,
		sessions: sessions,
		states:   states,
		oauth: &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  google.AuthURL,
				TokenURL: google.TokenURL,
			},
		},
		userInfoURL:  google.UserInfoURL,
		tokenInfoURL: google.TokenInfoURL,
		validate:     validator.New(),
		log:          log,
	}
}

// NewClient returns the identity client of one browser session.
func (b *Backend) NewClient(sessionID string) *Client {
	return &Client{
		backend:   b,
		sessionID: sessionID,
		listeners: make(map[int]ports.SessionListener),
	}
}

// authenticate checks an email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (b *Backend) authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	acc, err := b.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.NewProviderError(domain.CodeInvalidCredential, nil)
		}
		return nil, domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}
	if acc.PasswordHash == "" {
		// Federated-only account.
		return nil, domain.NewProviderError(domain.CodeInvalidCredential, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewProviderError(domain.CodeInvalidCredential, nil)
	}
	if acc.Disabled {
		return nil, domain.NewProviderError(domain.CodeUserDisabled, nil)
	}
	return acc, nil
}

func (b *Backend) register(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.TrimSpace(email)
	if err := b.validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewProviderError(domain.CodeInvalidEmail, nil)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewProviderError(domain.CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &domain.Account{
		UID:          uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Provider:     domain.ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if err := b.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.NewProviderError(domain.CodeEmailAlreadyInUse, nil)
		}
		return nil, domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}
	return acc, nil
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// federated resolves the account behind a Google access token, creating it
// on first sign-in. Google must vouch for the email: an existing account with
// the same address is then linked to the Google subject, so later sign-ins
// find it by subject.
func (b *Backend) federated(ctx context.Context, token *oauth2.Token) (*domain.Account, error) {
	info, err := b.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	acc, err := b.accounts.FindBySubject(ctx, domain.ProviderGoogle, info.Sub)
	if err == nil {
		return acc, b.checkEnabled(acc)
	}
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, fmt.Errorf("find federated account: %w", err)
	}

	if !info.EmailVerified {
		b.log.Warn().Str("subject", info.Sub).Msg("federated sign-in with unverified email rejected")
		return nil, domain.NewProviderError(domain.CodeInvalidCredential, nil)
	}

	acc, err = b.accounts.FindByEmail(ctx, info.Email)
	if err == nil {
		if err := b.checkEnabled(acc); err != nil {
			return nil, err
		}
		if err := b.accounts.LinkSubject(ctx, acc.UID, domain.ProviderGoogle, info.Sub); err != nil {
			return nil, fmt.Errorf("link federated subject: %w", err)
		}
		b.log.Info().Str("uid", acc.UID).Msg("federated subject linked to existing account")
		return acc, nil
	}
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	acc = &domain.Account{
		UID:             uuid.NewString(),
		Email:           strings.ToLower(info.Email),
		DisplayName:     info.Name,
		Provider:        domain.ProviderGoogle,
		ProviderSubject: info.Sub,
		CreatedAt:       time.Now().UTC(),
	}
	if err := b.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("create federated account: %w", err)
	}
	b.log.Info().Str("uid", acc.UID).Msg("federated account created")
	return acc, nil
}

func (b *Backend) checkEnabled(acc *domain.Account) error {
	if acc.Disabled {
		return domain.NewProviderError(domain.CodeUserDisabled, nil)
	}
	return nil
}

func (b *Backend) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := b.oauth.Client(ctx, token).Get(b.userInfoURL)
	if err != nil {
		return nil, domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse user info: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("user info response without sub or email")
	}
	return &info, nil
}

type googleTokenInfo struct {
	Aud string `json:"aud"`
	Azp string `json:"azp"`
}

// verifyAudience checks that a browser-supplied access token was issued to
// this portal's client id. Tokens granted to other applications are rejected.
func (b *Backend) verifyAudience(ctx context.Context, accessToken string) error {
	u, err := url.Parse(b.tokenInfoURL)
	if err != nil {
		return fmt.Errorf("parse token info url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build token info request: %w", err)
	}
	resp, err := oauth2.NewClient(ctx, nil).Do(req)
	if err != nil {
		return domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Unknown or expired token.
		return domain.NewProviderError(domain.CodeInvalidCredential, fmt.Errorf("token info status %d", resp.StatusCode))
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("parse token info: %w", err)
	}
	clientID := b.oauth.ClientID
	if clientID == "" || (info.Aud != clientID && info.Azp != clientID) {
		b.log.Warn().Str("aud", info.Aud).Msg("access token issued to another client rejected")
		return domain.NewProviderError(domain.CodeInvalidCredential, nil)
	}
	return nil
}

// authCodeURL starts a redirect sign-in and remembers the role intent under a
// fresh state value.
func (b *Backend) authCodeURL(ctx context.Context, intendedRole *domain.Role) (string, error) {
	state := uuid.NewString()
	if err := b.states.Save(ctx, state, intendedRole); err != nil {
		return "", err
	}
	return b.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

func (b *Backend) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}
