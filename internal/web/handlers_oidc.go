package web

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/accessops/access-console/internal/auth"
)

// handleLogin initiates the OIDC login flow.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.enabled() {
		http.Error(w, "OIDC authentication is not enabled", http.StatusNotFound)
		return
	}

	// Generate state and nonce
	stateData, err := s.oidc.StateStore.Generate(w)
	if err != nil {
		log.Printf("Failed to generate OIDC state: %v", err)
		http.Error(w, "failed to initiate login", http.StatusInternalServerError)
		return
	}

	// Redirect to OIDC provider
	authURL := s.oidc.Provider.AuthCodeURL(stateData.State, stateData.Nonce)
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// handleCallback handles the OIDC callback after authentication.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.enabled() {
		http.Error(w, "OIDC authentication is not enabled", http.StatusNotFound)
		return
	}

	ctx := r.Context()

	// Check for error from provider
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		if errDesc == "" {
			errDesc = errParam
		}
		log.Printf("OIDC provider returned error: %s - %s", errParam, errDesc)
		http.Redirect(w, r, "/?login_error="+url.QueryEscape(errDesc), http.StatusSeeOther)
		return
	}

	// Get authorization code
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/?login_error="+url.QueryEscape("No authorization code received"), http.StatusSeeOther)
		return
	}

	// Validate state
	state := r.URL.Query().Get("state")
	stateData, err := s.oidc.StateStore.Validate(r, state)
	if err != nil {
		log.Printf("OIDC state validation failed: %v", err)
		http.Redirect(w, r, "/?login_error="+url.QueryEscape("Invalid state parameter"), http.StatusSeeOther)
		return
	}

	// Clear state cookie
	s.oidc.StateStore.Clear(w)

	// Exchange code for tokens
	result, err := s.oidc.Provider.Exchange(ctx, code, stateData.Nonce)
	if err != nil {
		log.Printf("OIDC token exchange failed: %v", err)
		http.Redirect(w, r, "/?login_error="+url.QueryEscape("Failed to complete authentication"), http.StatusSeeOther)
		return
	}

	// Validate claims (domain restriction, etc.)
	if err := s.oidc.Provider.ValidateClaims(result.Claims); err != nil {
		log.Printf("OIDC claims validation failed: %v", err)
		http.Redirect(w, r, "/?login_error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	// Create session
	session := &auth.OIDCSession{
		Subject:      result.Claims.Subject,
		Email:        result.Claims.Email,
		Name:         result.Claims.Name,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenExpiry:  result.Expiry,
	}

	if err := s.oidc.SessionManager.Create(w, session); err != nil {
		log.Printf("Failed to create OIDC session: %v", err)
		http.Redirect(w, r, "/?login_error="+url.QueryEscape("Failed to create session"), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout clears the session and redirects to the provider logout URL if
// one is configured.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !s.enabled() {
		http.Error(w, "OIDC authentication is not enabled", http.StatusNotFound)
		return
	}

	s.oidc.SessionManager.Clear(w)

	if s.logoutURL != "" {
		http.Redirect(w, r, s.logoutURL, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// WhoAmIResponse identifies the signed-in user to the frontend.
type WhoAmIResponse struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
}

// handleWhoAmI returns the signed-in user, or 401 when there is no valid
// session.
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	if !s.enabled() {
		http.Error(w, "OIDC authentication is not enabled", http.StatusNotFound)
		return
	}

	session, err := s.oidc.SessionManager.Get(r)
	if err != nil {
		http.Error(w, `{"code":401,"message":"not signed in"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&WhoAmIResponse{
		Email: session.Email,
		Name:  session.Name,
		Admin: s.adminEmails[strings.ToLower(session.Email)],
	})
}
