package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// Cloud Console, read from the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the access and refresh token next to it.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local server waits for the OAuth redirect.
	LocalhostAuthPort = "6789"

	xdgAppName = "daysleft"
)

// Scopes needed to read and edit Google Tasks.
var Scopes = []string{tasks.TasksScope}

// TodoistClient returns an http.Client that sends apiKey as a bearer token.
func TodoistClient(ctx context.Context, apiKey string) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}))
}

// GetConfig creates an oauth2.Config from the client secrets file.
func GetConfig(log zerolog.Logger, scopes []string) (*oauth2.Config, error) {
	xdgConfigBase, err := GetXdgHome()
	if err != nil {
		return nil, err
	}

	clientSecretsFile := filepath.Join(xdgConfigBase, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = redirectURL(log, config.RedirectURL)
	return config, nil
}

// redirectURL forces localhost and out-of-band redirects onto the port the
// local callback server listens on.
func redirectURL(log zerolog.Logger, raw string) string {
	if raw == "urn:ietf:wg:oauth:2.0:oob" || raw == "" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		log.Warn().Err(err).Str("redirect_url", raw).Msg("could not parse redirect url, using it as is")
		return raw
	}
	if parsed.Hostname() != "localhost" && parsed.Hostname() != "127.0.0.1" {
		log.Warn().Str("redirect_url", raw).Msg("redirect url is not a localhost callback")
		return raw
	}
	if parsed.Port() != LocalhostAuthPort {
		parsed.Host = net.JoinHostPort(parsed.Hostname(), LocalhostAuthPort)
	}
	return parsed.String()
}

// GetClient returns an authenticated client, loading the cached token or
// running the browser flow when there is none. Refreshed tokens are written
// back to the cache.
func GetClient(ctx context.Context, log zerolog.Logger, scopes []string) (*http.Client, error) {
	config, err := GetConfig(log, scopes)
	if err != nil {
		return nil, err
	}

	xdgConfigBase, err := GetXdgHome()
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(xdgConfigBase, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Info().Str("path", tokenFile).Msg("no cached token, starting web authorization")
		tok, err = getTokenFromWeb(ctx, log, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := &savingTokenSource{
		base: config.TokenSource(ctx, tok),
		path: tokenFile,
		last: tok,
		log:  log,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingTokenSource writes the token to disk whenever the underlying source
// hands out a different one.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string
	last *oauth2.Token
	log  zerolog.Logger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			s.log.Warn().Err(err).Msg("could not save refreshed token")
		}
		s.last = tok
	}
	return tok, nil
}

// getTokenFromWeb runs the authorization code flow with a local callback server.
func getTokenFromWeb(ctx context.Context, log zerolog.Logger, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- fmt.Errorf("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Shutdown(context.Background())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()

	// AccessTypeOffline is needed for a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize daysleft:\n%s\n", authURL)
	log.Info().Str("redirect_url", config.RedirectURL).Msg("waiting for authorization code")

	select {
	case authCode := <-codeCh:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(ctx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// RemoveToken deletes the cached token so the next GetClient re-authorizes.
func RemoveToken() (string, error) {
	xdgConfigBase, err := GetXdgHome()
	if err != nil {
		return "", err
	}
	tokenFile := filepath.Join(xdgConfigBase, TokenFile)
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return tokenFile, fmt.Errorf("could not delete token file %s: %w", tokenFile, err)
	}
	return tokenFile, nil
}

// GetTasksService creates an authenticated Google Tasks service.
func GetTasksService(ctx context.Context, log zerolog.Logger) (*tasks.Service, error) {
	client, err := GetClient(ctx, log, Scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Tasks API: %w", err)
	}
	srv, err := tasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Tasks service: %w", err)
	}
	return srv, nil
}

// GetXdgHome returns the directory holding credentials and the token cache.
func GetXdgHome() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}
