package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"offerwall.api/internal/api"
	"offerwall.api/internal/auth"
	"offerwall.api/internal/config"
	"offerwall.api/internal/earn"
	"offerwall.api/internal/offers"
	"offerwall.api/internal/store"
)

const (
	testJWTSecret      = "test-jwt-secret"
	testPostbackSecret = "test-postback-secret"
	testSetupSecret    = "test-setup-secret"
)

type testEnv struct {
	pool   *pgxpool.Pool
	store  *store.Store
	server *httptest.Server
	client *http.Client
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	require.NoError(t, store.Migrate(dbURL))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)

	resetDB(t, pool)

	cfg := config.Config{
		JWTSecret:          testJWTSecret,
		TokenTTL:           time.Hour,
		AdminSetupSecret:   testSetupSecret,
		PostbackSecret:     testPostbackSecret,
		PointsPerUSD:       decimal.NewFromInt(100),
		ReferralRate:       decimal.NewFromFloat(0.05),
		SignupBonus:        50,
		DedupWindow:        48 * time.Hour,
		CORSOrigins:        []string{"http://localhost:3000"},
		RateLimitPerMinute: 10000,
	}

	st := store.New(pool)
	logger := zerolog.New(io.Discard)
	processor := earn.NewProcessor(st, cfg.PointsPerUSD, cfg.ReferralRate, cfg.DedupWindow, logger)
	feed := offers.NewClient("http://127.0.0.1:1", "", time.Second)

	srv := api.NewServer(st, processor, feed, cfg, logger)
	ts := httptest.NewServer(srv.Routes())

	return &testEnv{
		pool:   pool,
		store:  st,
		server: ts,
		client: &http.Client{Timeout: 3 * time.Second},
	}
}

func (e *testEnv) close() {
	e.server.Close()
	e.pool.Close()
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE accounts, transactions, withdrawals, rewards, settings RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func (e *testEnv) doRequest(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// seedAccount creates an account directly through the store and returns
// it with a valid session token.
func (e *testEnv) seedAccount(t *testing.T, email, referrerCode string) (store.Account, string) {
	t.Helper()

	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)

	account, err := e.store.CreateAccount(context.Background(), store.CreateAccountInput{
		Email:        email,
		PasswordHash: hash,
		ReferrerCode: referrerCode,
	})
	require.NoError(t, err)

	token, err := auth.IssueToken(testJWTSecret, account.ID, account.Role, time.Hour)
	require.NoError(t, err)
	return account, token
}

func (e *testEnv) seedAdmin(t *testing.T, email string) (store.Account, string) {
	t.Helper()

	e.seedAccount(t, email, "")
	admin, err := e.store.PromoteToAdmin(context.Background(), email)
	require.NoError(t, err)

	token, err := auth.IssueToken(testJWTSecret, admin.ID, admin.Role, time.Hour)
	require.NoError(t, err)
	return admin, token
}

// creditPoints funds an account through the ledger.
func (e *testEnv) creditPoints(t *testing.T, accountID, points int64) {
	t.Helper()
	_, _, err := e.store.CreditEarn(context.Background(), store.EarnCredit{
		AccountID: accountID,
		Points:    points,
		Network:   "seed",
		OfferID:   "seed-" + time.Now().Format("150405.000000000"),
		Window:    time.Nanosecond,
	})
	require.NoError(t, err)
}

func getBalance(t *testing.T, pool *pgxpool.Pool, accountID int64) int64 {
	t.Helper()
	var balance int64
	err := pool.QueryRow(context.Background(),
		`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// ledgerBalance recomputes the balance from the transaction log.
func ledgerBalance(t *testing.T, pool *pgxpool.Pool, accountID int64) int64 {
	t.Helper()
	var sum int64
	err := pool.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(CASE WHEN kind = 'redeem' THEN -amount ELSE amount END), 0)
		   FROM transactions WHERE account_id = $1`, accountID).Scan(&sum)
	require.NoError(t, err)
	return sum
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
