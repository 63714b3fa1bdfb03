package api

import (
	"net/http"

	"offerwall.api/internal/earn"
	"offerwall.api/internal/metrics"
	"offerwall.api/internal/store"
)

// handleNetworkPostback is the server-to-server callback hit by the ad
// network when a user completes an offer. Networks vary in parameter
// naming, so the subject and offer id are taken from the first matching
// alias.
func (s *Server) handleNetworkPostback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if !secureCompare(q.Get("secret"), s.cfg.PostbackSecret) {
		metrics.PostbacksTotal.WithLabelValues("forbidden").Inc()
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	raw := make(map[string]string, len(q))
	for k := range q {
		if k == "secret" {
			continue
		}
		raw[k] = q.Get(k)
	}

	ev := earn.Event{
		Network: "ogads",
		Subject: firstOf(q, "aff_sub", "subid", "sub_id", "uid", "aff_sub4"),
		Payout:  q.Get("payout"),
		OfferID: firstOf(q, "id", "offer_id"),
		Sub4:    q.Get("aff_sub4"),
		Sub5:    q.Get("aff_sub5"),
		Raw:     raw,
	}

	res, err := s.earn.Process(r.Context(), ev)
	if err != nil {
		if reason, ok := earn.AsRejection(err); ok {
			metrics.PostbacksTotal.WithLabelValues(string(reason)).Inc()
			writeError(w, rejectionStatus(reason), string(reason))
			return
		}
		metrics.PostbacksTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("subject", ev.Subject).Msg("postback processing")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	if res.Duplicate {
		metrics.PostbacksTotal.WithLabelValues("duplicate").Inc()
		writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
		return
	}

	metrics.PostbacksTotal.WithLabelValues("ok").Inc()
	metrics.PointsCreditedTotal.WithLabelValues(store.KindEarn).Add(float64(res.Points))
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "points": res.Points})
}

func firstOf(q map[string][]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := q[k]; ok && len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return ""
}

func rejectionStatus(reason earn.RejectReason) int {
	switch reason {
	case earn.RejectUnknownSubject:
		return http.StatusNotFound
	case earn.RejectBanned:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
