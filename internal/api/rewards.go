package api

import (
	"net/http"
)

// handleListRewards serves the public catalog: enabled rewards plus the
// current conversion settings.
func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := s.store.ListRewards(r.Context(), true)
	if err != nil {
		s.log.Error().Err(err).Msg("list rewards")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load settings")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rewards":  toRewardResponses(rewards),
		"settings": toSettingsResponse(settings),
	})
}
