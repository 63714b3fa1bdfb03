package api

import (
	"errors"
	"net/http"
	"strings"

	"offerwall.api/internal/auth"
	"offerwall.api/internal/store"
)

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	ReferrerCode string `json:"referrer_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string          `json:"token"`
	User  accountResponse `json:"user"`
}

const minPasswordLen = 6

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") || len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "invalid-credentials")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("hash password")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	account, err := s.store.CreateAccount(r.Context(), store.CreateAccountInput{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		ReferrerCode: strings.TrimSpace(req.ReferrerCode),
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "email-taken")
			return
		}
		s.log.Error().Err(err).Msg("create account")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	s.issueSession(w, account)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	account, err := s.store.GetAccountByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusBadRequest, "invalid-credentials")
			return
		}
		s.log.Error().Err(err).Msg("login lookup")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	if !auth.CheckPassword(account.PasswordHash, req.Password) {
		writeError(w, http.StatusBadRequest, "invalid-credentials")
		return
	}

	s.issueSession(w, account)
}

func (s *Server) issueSession(w http.ResponseWriter, account store.Account) {
	token, err := auth.IssueToken(s.cfg.JWTSecret, account.ID, account.Role, s.cfg.TokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: toAccountResponse(account)})
}

type makeAdminRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// handleMakeAdmin is the one-time bootstrap that promotes an account
// using the setup secret. Disabled when the secret is not configured.
func (s *Server) handleMakeAdmin(w http.ResponseWriter, r *http.Request) {
	var req makeAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	provided := r.URL.Query().Get("secret")
	if provided == "" {
		provided = req.Secret
	}
	if s.cfg.AdminSetupSecret == "" || !secureCompare(provided, s.cfg.AdminSetupSecret) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email-required")
		return
	}

	account, err := s.store.PromoteToAdmin(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user-not-found")
			return
		}
		s.log.Error().Err(err).Msg("promote to admin")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	account, err := s.store.GetAccount(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user-not-found")
			return
		}
		s.log.Error().Err(err).Msg("load account")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}
