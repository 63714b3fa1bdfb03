package api

import (
	"errors"
	"net/http"
	"strings"

	"offerwall.api/internal/metrics"
	"offerwall.api/internal/store"
)

func (s *Server) handleReferralStats(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	account, err := s.store.GetAccount(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user-not-found")
		return
	}

	invited, points, err := s.store.ReferralStats(r.Context(), account)
	if err != nil {
		s.log.Error().Err(err).Int64("account", account.ID).Msg("referral stats")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"my_referral_code": account.ReferralCode,
		"referred_count":   invited,
		"referral_points":  points,
	})
}

func (s *Server) handleLatestReferred(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	account, err := s.store.GetAccount(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user-not-found")
		return
	}

	referred, err := s.store.LatestReferred(r.Context(), account.ReferralCode, 5)
	if err != nil {
		s.log.Error().Err(err).Int64("account", account.ID).Msg("latest referred")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	type entry struct {
		Email    string `json:"email"`
		JoinedAt string `json:"joined_at"`
	}
	out := make([]entry, 0, len(referred))
	for _, a := range referred {
		out = append(out, entry{Email: maskEmail(a.Email), JoinedAt: a.CreatedAt.Format("2006-01-02")})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSignupBonus pays the inviter's one-time bonus for this account
// signing up through their link. Idempotent: a repeat claim reports
// granted=false.
func (s *Server) handleSignupBonus(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	granted, err := s.store.GrantSignupBonus(r.Context(), claims.AccountID, s.cfg.SignupBonus)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user-not-found")
			return
		}
		s.log.Error().Err(err).Int64("account", claims.AccountID).Msg("signup bonus")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	if granted {
		metrics.PointsCreditedTotal.WithLabelValues(store.KindReferral).Add(float64(s.cfg.SignupBonus))
	}
	writeJSON(w, http.StatusOK, map[string]any{"granted": granted, "bonus": s.cfg.SignupBonus})
}

// maskEmail keeps the first two characters of the local part.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return local + "***@" + domain
	}
	return local[:2] + "***@" + domain
}
