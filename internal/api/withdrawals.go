package api

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"offerwall.api/internal/metrics"
	"offerwall.api/internal/store"
)

var walletNumberRe = regexp.MustCompile(`^\d{11}$`)

type createWithdrawalRequest struct {
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	RewardType    string `json:"reward_type"`
	GameAccountID string `json:"account_id"`
	ContactEmail  string `json:"email"`
	WalletNumber  string `json:"wallet_number"`
	WalletName    string `json:"wallet_name"`
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	var req createWithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-request")
		return
	}

	// Older clients send the method under reward_type.
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = strings.TrimSpace(req.RewardType)
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid-amount")
		return
	}

	switch method {
	case store.MethodFreeFire, store.MethodPUBG:
		if strings.TrimSpace(req.GameAccountID) == "" || strings.TrimSpace(req.ContactEmail) == "" {
			writeError(w, http.StatusBadRequest, "missing-game-info")
			return
		}
	case store.MethodVodafoneCash:
		if !walletNumberRe.MatchString(req.WalletNumber) {
			writeError(w, http.StatusBadRequest, "invalid-wallet-number")
			return
		}
		if strings.TrimSpace(req.WalletName) == "" {
			writeError(w, http.StatusBadRequest, "missing-wallet-info")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid-method")
		return
	}

	withdrawal, err := s.store.CreateWithdrawal(r.Context(), store.CreateWithdrawalInput{
		AccountID:     claims.AccountID,
		Amount:        req.Amount,
		RewardType:    method,
		Method:        method,
		GameAccountID: strings.TrimSpace(req.GameAccountID),
		ContactEmail:  strings.TrimSpace(req.ContactEmail),
		WalletNumber:  req.WalletNumber,
		WalletName:    strings.TrimSpace(req.WalletName),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			writeError(w, http.StatusBadRequest, "insufficient-points")
		case errors.Is(err, store.ErrAccountBanned):
			writeError(w, http.StatusForbidden, "account-banned")
		case errors.Is(err, store.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "user-not-found")
		default:
			s.log.Error().Err(err).Int64("account", claims.AccountID).Msg("create withdrawal")
			writeError(w, http.StatusInternalServerError, "internal-error")
		}
		return
	}

	metrics.WithdrawalsTotal.WithLabelValues(store.WithdrawalPending).Inc()
	writeJSON(w, http.StatusCreated, toWithdrawalResponse(withdrawal))
}

func (s *Server) handleListOwnWithdrawals(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	items, err := s.store.ListAccountWithdrawals(r.Context(), claims.AccountID, 100)
	if err != nil {
		s.log.Error().Err(err).Int64("account", claims.AccountID).Msg("list withdrawals")
		writeError(w, http.StatusInternalServerError, "internal-error")
		return
	}
	writeJSON(w, http.StatusOK, toWithdrawalResponses(items))
}
