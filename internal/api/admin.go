package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"offerwall.api/internal/metrics"
	"offerwall.api/internal/store"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	items, total, err := s.store.ListAccounts(r.Context(), store.ListAccountsParams{
		Page:  page,
		Limit: limit,
		Query: strings.TrimSpace(q.Get("q")),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("list accounts")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	out := make([]accountResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out, "total": total})
}

type overrideUserRequest struct {
	Points *int64  `json:"points"`
	Status *string `json:"status"`
}

// handleAdminOverrideUser writes balance or status directly, bypassing
// the ledger. Every use is logged with the acting admin.
func (s *Server) handleAdminOverrideUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	var req overrideUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}
	if req.Points == nil && req.Status == nil {
		writeError(w, http.StatusBadRequest, "nothing-to-update")
		return
	}
	if req.Points != nil && *req.Points < 0 {
		writeError(w, http.StatusBadRequest, "invalid-points")
		return
	}
	if req.Status != nil && *req.Status != store.StatusActive && *req.Status != store.StatusBanned {
		writeError(w, http.StatusBadRequest, "invalid-status")
		return
	}

	account, err := s.store.OverrideAccount(r.Context(), id, req.Points, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user-not-found")
			return
		}
		s.log.Error().Err(err).Int64("account", id).Msg("override account")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	claims, _ := claimsFrom(r)
	s.log.Warn().
		Int64("actor", claims.AccountID).
		Int64("account", id).
		Msg("account override applied outside the ledger")

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

type adjustPointsRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

func (s *Server) handleAdminAdjustPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	var req adjustPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	claims, _ := claimsFrom(r)
	tx, err := s.store.AdjustBalance(r.Context(), id, req.Delta, strings.TrimSpace(req.Reason), claims.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidDelta):
			writeError(w, http.StatusBadRequest, "invalid-delta")
		case errors.Is(err, store.ErrInsufficientBalance):
			writeError(w, http.StatusBadRequest, "insufficient-points")
		case errors.Is(err, store.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "user-not-found")
		default:
			s.log.Error().Err(err).Int64("account", id).Msg("adjust balance")
			writeError(w, http.StatusInternalServerError, "internal-error")
		}
		return
	}

	if req.Delta > 0 {
		metrics.PointsCreditedTotal.WithLabelValues(tx.Kind).Add(float64(req.Delta))
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleAdminZeroPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	claims, _ := claimsFrom(r)
	tx, err := s.store.ZeroBalance(r.Context(), id, claims.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user-not-found")
			return
		}
		s.log.Error().Err(err).Int64("account", id).Msg("zero balance")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}

	if tx == nil {
		writeJSON(w, http.StatusOK, map[string]any{"zeroed": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zeroed": true, "transaction": toTransactionResponse(*tx)})
}

func (s *Server) handleAdminBan(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, store.StatusBanned)
}

func (s *Server) handleAdminUnban(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, store.StatusActive)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	account, err := s.store.SetAccountStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user-not-found")
			return
		}
		s.log.Error().Err(err).Int64("account", id).Msg("set status")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleAdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := s.store.ListWithdrawals(r.Context(), status, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list withdrawals")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toWithdrawalResponses(items))
}

type moderateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (s *Server) handleAdminModerateWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	var req moderateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}
	if req.Status != store.WithdrawalApproved && req.Status != store.WithdrawalRejected {
		writeError(w, http.StatusBadRequest, "invalid-status")
		return
	}

	withdrawal, err := s.store.ModerateWithdrawal(r.Context(), id, req.Status, strings.TrimSpace(req.Note))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "withdrawal-not-found")
		case errors.Is(err, store.ErrInvalidStatus):
			writeError(w, http.StatusConflict, "already-moderated")
		default:
			s.log.Error().Err(err).Int64("withdrawal", id).Msg("moderate withdrawal")
			writeError(w, http.StatusInternalServerError, "internal-error")
		}
		return
	}

	metrics.WithdrawalsTotal.WithLabelValues(withdrawal.Status).Inc()
	writeJSON(w, http.StatusOK, toWithdrawalResponse(withdrawal))
}

func (s *Server) handleAdminListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	if raw := q.Get("user_id"); raw != "" {
		accountID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || accountID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid-id")
			return
		}
		items, err := s.store.ListAccountTransactions(r.Context(), accountID, limit)
		if err != nil {
			s.log.Error().Err(err).Int64("account", accountID).Msg("list transactions")
			writeError(w, http.StatusInternalServerError, "internal-error")
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponses(items))
		return
	}

	items, err := s.store.ListTransactions(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list transactions")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(items))
}

func (s *Server) handleAdminListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := s.store.ListRewards(r.Context(), false)
	if err != nil {
		s.log.Error().Err(err).Msg("list rewards")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toRewardResponses(rewards))
}

type createRewardRequest struct {
	Method      string `json:"method"`
	Label       string `json:"label"`
	Qty         int64  `json:"qty"`
	PricePoints int64  `json:"price_points"`
	Enabled     *bool  `json:"enabled"`
}

func validMethod(m string) bool {
	switch m {
	case store.MethodFreeFire, store.MethodPUBG, store.MethodVodafoneCash:
		return true
	}
	return false
}

func (s *Server) handleAdminCreateReward(w http.ResponseWriter, r *http.Request) {
	var req createRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}
	if !validMethod(req.Method) {
		writeError(w, http.StatusBadRequest, "invalid-method")
		return
	}
	if strings.TrimSpace(req.Label) == "" || req.Qty <= 0 || req.PricePoints <= 0 {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	reward, err := s.store.CreateReward(r.Context(), store.CreateRewardInput{
		Method:      req.Method,
		Label:       strings.TrimSpace(req.Label),
		Qty:         req.Qty,
		PricePoints: req.PricePoints,
		Enabled:     enabled,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("create reward")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusCreated, toRewardResponse(reward))
}

type updateRewardRequest struct {
	Method      *string `json:"method"`
	Label       *string `json:"label"`
	Qty         *int64  `json:"qty"`
	PricePoints *int64  `json:"price_points"`
	Enabled     *bool   `json:"enabled"`
}

func (s *Server) handleAdminUpdateReward(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	var req updateRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}
	if req.Method != nil && !validMethod(*req.Method) {
		writeError(w, http.StatusBadRequest, "invalid-method")
		return
	}
	if (req.Qty != nil && *req.Qty <= 0) || (req.PricePoints != nil && *req.PricePoints <= 0) {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	reward, err := s.store.UpdateReward(r.Context(), id, store.UpdateRewardInput{
		Method:      req.Method,
		Label:       req.Label,
		Qty:         req.Qty,
		PricePoints: req.PricePoints,
		Enabled:     req.Enabled,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reward-not-found")
			return
		}
		s.log.Error().Err(err).Int64("reward", id).Msg("update reward")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toRewardResponse(reward))
}

func (s *Server) handleAdminDeleteReward(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid-id")
		return
	}

	if err := s.store.DeleteReward(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reward-not-found")
			return
		}
		s.log.Error().Err(err).Int64("reward", id).Msg("delete reward")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load settings")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

type updateSettingsRequest struct {
	FreefirePer100Points *int64 `json:"freefire_per100_points"`
	PubgPer60Points      *int64 `json:"pubg_per60_points"`
	VodafonePointsPerEGP *int64 `json:"vodafone_points_per_egp"`
}

func (s *Server) handleAdminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	for _, v := range []*int64{req.FreefirePer100Points, req.PubgPer60Points, req.VodafonePointsPerEGP} {
		if v != nil && *v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid-request")
			return
		}
	}

	settings, err := s.store.UpdateSettings(r.Context(), store.UpdateSettingsInput{
		FreefirePer100Points: req.FreefirePer100Points,
		PubgPer60Points:      req.PubgPer60Points,
		VodafonePointsPerEGP: req.VodafonePointsPerEGP,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("update settings")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
