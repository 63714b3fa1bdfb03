package api

import (
	"errors"
	"net/http"

	"offerwall.api/internal/offers"
)

// handleOffers proxies the upstream offer feed for the authenticated
// user, pinning the sub id so postbacks can be attributed.
func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	q := r.URL.Query()

	ip := q.Get("ip")
	if ip == "" {
		ip = clientIP(r)
	}
	ua := q.Get("user_agent")
	if ua == "" {
		ua = r.UserAgent()
	}

	items, err := s.feed.Fetch(r.Context(), offers.Params{
		IP:        ip,
		UserAgent: ua,
		CType:     q.Get("ctype"),
		Max:       q.Get("max"),
		Min:       q.Get("min"),
		SubID:     offers.SubIDFromAccount(claims.AccountID),
		Sub5:      q.Get("aff_sub5"),
	})
	if err != nil {
		var upstream *offers.UpstreamError
		switch {
		case errors.As(err, &upstream):
			s.log.Warn().Int("status", upstream.StatusCode).Msg("offer feed upstream error")
			writeError(w, http.StatusBadGateway, "upstream-error")
		case errors.Is(err, offers.ErrMissingAPIKey):
			writeError(w, http.StatusInternalServerError, "feed-not-configured")
		default:
			s.log.Error().Err(err).Msg("offer feed")
			writeError(w, http.StatusInternalServerError, "internal-error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"offers": items})
}
