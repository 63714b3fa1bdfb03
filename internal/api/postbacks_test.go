package api_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func postbackURL(secret string, params map[string]string) string {
	q := url.Values{}
	q.Set("secret", secret)
	for k, v := range params {
		q.Set(k, v)
	}
	return "/postbacks/network?" + q.Encode()
}

type postbackResponse struct {
	Status string `json:"status"`
	Points int64  `json:"points"`
}

func TestPostbackCreditsPoints(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")

	resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, map[string]string{
		"aff_sub": account.ReferralCode,
		"payout":  "2.00",
		"id":      "offer-1",
	}), "", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got postbackResponse
	decodeBody(t, resp, &got)
	require.Equal(t, "ok", got.Status)
	require.Equal(t, int64(200), got.Points)

	require.Equal(t, int64(200), getBalance(t, env.pool, account.ID))
	require.Equal(t, getBalance(t, env.pool, account.ID), ledgerBalance(t, env.pool, account.ID))
}

func TestPostbackDuplicateRedelivery(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")

	path := postbackURL(testPostbackSecret, map[string]string{
		"aff_sub": account.ReferralCode,
		"payout":  "1.50",
		"id":      "offer-1",
	})

	first := env.doRequest(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, first.StatusCode)
	var ok postbackResponse
	decodeBody(t, first, &ok)
	require.Equal(t, "ok", ok.Status)

	second := env.doRequest(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, second.StatusCode)
	var dup postbackResponse
	decodeBody(t, second, &dup)
	require.Equal(t, "duplicate", dup.Status)

	require.Equal(t, int64(150), getBalance(t, env.pool, account.ID))
	earns := countRows(t, env.pool,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1 AND kind = 'earn'`, account.ID)
	require.Equal(t, int64(1), earns)
}

func TestPostbackDistinctOffersBothCredit(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")

	for _, offer := range []string{"offer-1", "offer-2"} {
		resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, map[string]string{
			"aff_sub": account.ReferralCode,
			"payout":  "1.00",
			"id":      offer,
		}), "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	require.Equal(t, int64(200), getBalance(t, env.pool, account.ID))
}

func TestPostbackBadSecret(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")

	resp := env.doRequest(t, http.MethodGet, postbackURL("wrong", map[string]string{
		"aff_sub": account.ReferralCode,
		"payout":  "2.00",
	}), "", "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, int64(0), getBalance(t, env.pool, account.ID))
}

func TestPostbackRejections(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")

	cases := []struct {
		name   string
		params map[string]string
		status int
	}{
		{"unknown subject", map[string]string{"aff_sub": "nope", "payout": "1.00"}, http.StatusNotFound},
		{"missing payout", map[string]string{"aff_sub": account.ReferralCode}, http.StatusBadRequest},
		{"garbage payout", map[string]string{"aff_sub": account.ReferralCode, "payout": "abc"}, http.StatusBadRequest},
		{"negative payout", map[string]string{"aff_sub": account.ReferralCode, "payout": "-1"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, tc.params), "", "")
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}

	require.Equal(t, int64(0), getBalance(t, env.pool, account.ID))
}

func TestPostbackPaysCommission(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	referrer, _ := env.seedAccount(t, "referrer@example.com", "")
	invitee, _ := env.seedAccount(t, "invitee@example.com", referrer.ReferralCode)

	resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, map[string]string{
		"aff_sub": invitee.ReferralCode,
		"payout":  "2.00",
		"id":      "offer-1",
	}), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, int64(200), getBalance(t, env.pool, invitee.ID))
	// 5% of 200, floored.
	require.Equal(t, int64(10), getBalance(t, env.pool, referrer.ID))

	var kind string
	err := env.pool.QueryRow(context.Background(),
		`SELECT kind FROM transactions WHERE account_id = $1`, referrer.ID).Scan(&kind)
	require.NoError(t, err)
	require.Equal(t, "referral", kind)
}

func TestPostbackCommissionFloorsToZero(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	referrer, _ := env.seedAccount(t, "referrer@example.com", "")
	invitee, _ := env.seedAccount(t, "invitee@example.com", referrer.ReferralCode)

	// 10 points, 5% = 0.5, floors to zero: earn still lands.
	resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, map[string]string{
		"aff_sub": invitee.ReferralCode,
		"payout":  "0.10",
		"id":      "offer-1",
	}), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, int64(10), getBalance(t, env.pool, invitee.ID))
	require.Equal(t, int64(0), getBalance(t, env.pool, referrer.ID))
}

func TestPostbackBannedAccount(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")
	_, err := env.store.SetAccountStatus(context.Background(), account.ID, "banned")
	require.NoError(t, err)

	resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, map[string]string{
		"aff_sub": account.ReferralCode,
		"payout":  "2.00",
	}), "", "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, int64(0), getBalance(t, env.pool, account.ID))
}

func TestPostbackRoundsToNearestPoint(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, _ := env.seedAccount(t, "earner@example.com", "")

	resp := env.doRequest(t, http.MethodGet, postbackURL(testPostbackSecret, map[string]string{
		"aff_sub": account.ReferralCode,
		"payout":  "1.005",
	}), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got postbackResponse
	decodeBody(t, resp, &got)
	require.Equal(t, int64(101), got.Points)
}
