// Package web provides the browser-facing auth surface of the console: the
// OIDC login flow and the session endpoint the frontend uses to identify the
// signed-in user.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/accessops/access-console/internal/auth"
	"github.com/accessops/access-console/internal/config"
	"github.com/go-chi/chi/v5"
)

// OIDCComponents bundles the OIDC provider, session manager, and state store.
type OIDCComponents struct {
	Provider       *auth.OIDCProvider
	SessionManager *auth.SessionManager
	StateStore     *auth.StateStore
}

// NewOIDCComponents constructs the OIDC components from config. Returns nil
// when OIDC is disabled.
func NewOIDCComponents(ctx context.Context, cfg *config.OIDCConfig) (*OIDCComponents, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	secret, err := cfg.GetSessionSecretBytes()
	if err != nil {
		return nil, err
	}

	provider, err := auth.NewOIDCProvider(ctx, cfg.IssuerURL, cfg.ClientID, cfg.ClientSecret,
		cfg.RedirectURL, cfg.GetScopes(), cfg.GetAllowedDomains())
	if err != nil {
		return nil, fmt.Errorf("creating OIDC provider: %w", err)
	}

	sessionManager, err := auth.NewSessionManager(secret, cfg.SessionDuration, false)
	if err != nil {
		return nil, fmt.Errorf("creating session manager: %w", err)
	}

	stateStore, err := auth.NewStateStore(secret, false)
	if err != nil {
		return nil, fmt.Errorf("creating state store: %w", err)
	}

	return &OIDCComponents{
		Provider:       provider,
		SessionManager: sessionManager,
		StateStore:     stateStore,
	}, nil
}

// Server holds dependencies for the web handlers.
type Server struct {
	oidc        *OIDCComponents
	logoutURL   string
	adminEmails map[string]bool
}

// NewRouter creates the web router. When OIDC is disabled the auth endpoints
// respond 404 and the console is API-key only.
func NewRouter(oidc *OIDCComponents, logoutURL string, adminEmails map[string]bool) http.Handler {
	s := &Server{
		oidc:        oidc,
		logoutURL:   logoutURL,
		adminEmails: adminEmails,
	}

	r := chi.NewRouter()
	r.Get("/auth/login", s.handleLogin)
	r.Get("/auth/callback", s.handleCallback)
	r.Get("/auth/logout", s.handleLogout)
	r.Get("/auth/whoami", s.handleWhoAmI)
	return r
}

func (s *Server) enabled() bool {
	return s.oidc != nil && s.oidc.Provider != nil
}
