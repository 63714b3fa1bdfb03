package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type sessionBody struct {
	Token string      `json:"token"`
	User  accountBody `json:"user"`
}

type accountBody struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Points       int64  `json:"points"`
	Status       string `json:"status"`
	Role         string `json:"role"`
	ReferralCode string `json:"my_referral_code"`
	ReferrerCode string `json:"referrer_code"`
}

func TestRegisterLoginMe(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	resp := env.doRequest(t, http.MethodPost, "/auth/register", "",
		`{"email":"New@Example.com","password":"secret1","name":"New User"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var registered sessionBody
	decodeBody(t, resp, &registered)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "new@example.com", registered.User.Email)
	require.Equal(t, int64(0), registered.User.Points)
	require.Equal(t, "user", registered.User.Role)
	require.NotEmpty(t, registered.User.ReferralCode)

	login := env.doRequest(t, http.MethodPost, "/auth/login", "",
		`{"email":"new@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, login.StatusCode)
	var session sessionBody
	decodeBody(t, login, &session)
	require.NotEmpty(t, session.Token)

	me := env.doRequest(t, http.MethodGet, "/me", session.Token, "")
	require.Equal(t, http.StatusOK, me.StatusCode)
	var profile accountBody
	decodeBody(t, me, &profile)
	require.Equal(t, registered.User.ID, profile.ID)
}

func TestRegisterValidation(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"secret1"}`},
		{"email without at sign", `{"email":"nope","password":"secret1"}`},
		{"short password", `{"email":"a@b.c","password":"12345"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.doRequest(t, http.MethodPost, "/auth/register", "", tc.body)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	env.seedAccount(t, "taken@example.com", "")

	resp := env.doRequest(t, http.MethodPost, "/auth/register", "",
		`{"email":"taken@example.com","password":"secret1"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	env.seedAccount(t, "user@example.com", "")

	resp := env.doRequest(t, http.MethodPost, "/auth/login", "",
		`{"email":"user@example.com","password":"wrong-password"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMeRequiresToken(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	resp := env.doRequest(t, http.MethodGet, "/me", "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bad := env.doRequest(t, http.MethodGet, "/me", "not-a-jwt", "")
	defer bad.Body.Close()
	require.Equal(t, http.StatusUnauthorized, bad.StatusCode)
}

func TestTokenViaQueryParameter(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, token := env.seedAccount(t, "user@example.com", "")

	resp := env.doRequest(t, http.MethodGet, "/me?token="+token, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile accountBody
	decodeBody(t, resp, &profile)
	require.Equal(t, account.ID, profile.ID)
}

func TestMakeAdmin(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	env.seedAccount(t, "user@example.com", "")

	wrong := env.doRequest(t, http.MethodPost, "/auth/make-admin", "",
		`{"email":"user@example.com","secret":"wrong"}`)
	defer wrong.Body.Close()
	require.Equal(t, http.StatusForbidden, wrong.StatusCode)

	resp := env.doRequest(t, http.MethodPost, "/auth/make-admin", "",
		`{"email":"user@example.com","secret":"`+testSetupSecret+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var promoted accountBody
	decodeBody(t, resp, &promoted)
	require.Equal(t, "admin", promoted.Role)

	missing := env.doRequest(t, http.MethodPost, "/auth/make-admin", "",
		`{"email":"nobody@example.com","secret":"`+testSetupSecret+`"}`)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestSignupBonusGrantedOnce(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	referrer, _ := env.seedAccount(t, "referrer@example.com", "")
	invitee, token := env.seedAccount(t, "invitee@example.com", referrer.ReferralCode)

	type bonusBody struct {
		Granted bool  `json:"granted"`
		Bonus   int64 `json:"bonus"`
	}

	first := env.doRequest(t, http.MethodPost, "/referrals/signup-bonus", token, "")
	require.Equal(t, http.StatusOK, first.StatusCode)
	var got bonusBody
	decodeBody(t, first, &got)
	require.True(t, got.Granted)
	require.Equal(t, int64(50), got.Bonus)

	// The bonus goes to the referrer, not the invitee.
	require.Equal(t, int64(50), getBalance(t, env.pool, referrer.ID))
	require.Equal(t, int64(0), getBalance(t, env.pool, invitee.ID))

	second := env.doRequest(t, http.MethodPost, "/referrals/signup-bonus", token, "")
	require.Equal(t, http.StatusOK, second.StatusCode)
	var repeat bonusBody
	decodeBody(t, second, &repeat)
	require.False(t, repeat.Granted)
	require.Equal(t, int64(50), getBalance(t, env.pool, referrer.ID))
}

func TestSignupBonusWithoutReferrer(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	account, token := env.seedAccount(t, "solo@example.com", "")

	resp := env.doRequest(t, http.MethodPost, "/referrals/signup-bonus", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Granted bool `json:"granted"`
	}
	decodeBody(t, resp, &got)
	require.False(t, got.Granted)
	require.Equal(t, int64(0), getBalance(t, env.pool, account.ID))
}

func TestReferralStats(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	referrer, token := env.seedAccount(t, "referrer@example.com", "")
	env.seedAccount(t, "invitee@example.com", referrer.ReferralCode)
	env.seedAccount(t, "another.person@example.com", referrer.ReferralCode)

	resp := env.doRequest(t, http.MethodGet, "/referrals/stats", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Code     string `json:"my_referral_code"`
		Referred int64  `json:"referred_count"`
		Points   int64  `json:"referral_points"`
	}
	decodeBody(t, resp, &stats)
	require.Equal(t, referrer.ReferralCode, stats.Code)
	require.Equal(t, int64(2), stats.Referred)
	require.Equal(t, int64(0), stats.Points)
}

func TestLatestReferredMasksEmails(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	referrer, token := env.seedAccount(t, "referrer@example.com", "")
	env.seedAccount(t, "invitee@example.com", referrer.ReferralCode)

	resp := env.doRequest(t, http.MethodGet, "/referrals/latest", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []struct {
		Email string `json:"email"`
	}
	decodeBody(t, resp, &entries)
	require.Len(t, entries, 1)
	require.Equal(t, "in***@example.com", entries[0].Email)
}
