package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/auth"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/cache"
	httphandler "github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/handlers"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/mail"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/middleware"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/repo"
)

var codePattern = regexp.MustCompile(`(?m)^(\d{6})$`)

// inbox captures rendered emails so tests can read the codes out of them
type inbox struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func (in *inbox) send(_ context.Context, to, _, subject, body string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.msgs == nil {
		in.msgs = map[string][]string{}
	}
	in.msgs[to+"|"+subject] = append(in.msgs[to+"|"+subject], body)
	return nil
}

// lastCode returns the code from the newest email sent to to with the given subject
func (in *inbox) lastCode(t *testing.T, to, subject string) string {
	t.Helper()
	in.mu.Lock()
	defer in.mu.Unlock()
	bodies := in.msgs[to+"|"+subject]
	require.NotEmpty(t, bodies, "no %q email sent to %s", subject, to)
	m := codePattern.FindStringSubmatch(bodies[len(bodies)-1])
	require.Len(t, m, 2, "no code in email body")
	return m[1]
}

const (
	subjectVerify = "LMS verification code"
	subjectReset  = "LMS password reset code"
)

type testServer struct {
	Server *httptest.Server
	Redis  *miniredis.Miniredis
	Inbox  *inbox
}

// newTestServer wires the full stack over users, miniredis and a capturing mailer.
// rpm is the per-IP budget for /auth; 0 disables it.
func newTestServer(t *testing.T, users repo.UserRepo, rpm int) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	kv := cache.NewRedisCache(client)

	in := &inbox{}
	mailer, err := mail.NewMailer(in.send, mail.Config{From: "no-reply@lms.test", SiteName: "LMS", Expiration: 10 * time.Minute})
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	otp := auth.NewCacheOtpProvider(kv, "test-otp-salt", 10*time.Minute, false)
	authService := auth.NewAuthService(users, kv, otp, tokens, mailer, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)

	router := httphandler.NewRouter(authHandler, tokens, users, middleware.NewRateLimiter(rpm), logger)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, Redis: mr, Inbox: in}
}

// envelope mirrors the response wrapper with data left raw
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Status     string          `json:"status"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userBody struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	IsVerified bool   `json:"isVerified"`
}

// call sends a JSON request and decodes the envelope. token may be empty.
func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	require.Equal(t, resp.StatusCode, env.StatusCode, "envelope statusCode must match HTTP status")
	return resp.StatusCode, env
}

func (s *testServer) post(t *testing.T, path string, body any) (int, envelope) {
	t.Helper()
	return s.call(t, http.MethodPost, path, "", body)
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), "data: %s", env.Data)
}

// signupAndVerify registers email and verifies it, returning the user and the first token pair
func (s *testServer) signupAndVerify(t *testing.T, email, password string) (userBody, tokenPair) {
	t.Helper()
	status, env := s.post(t, "/auth/signup", map[string]string{
		"email": email, "password": password, "firstName": "Alice", "lastName": "Doe",
	})
	require.Equal(t, http.StatusOK, status, "signup: %+v", env)
	var user userBody
	decodeData(t, env, &user)

	status, env = s.post(t, "/auth/verify-otp", map[string]string{
		"email": email, "otp": s.Inbox.lastCode(t, email, subjectVerify),
	})
	require.Equal(t, http.StatusOK, status, "verify-otp: %+v", env)
	var pair tokenPair
	decodeData(t, env, &pair)
	return user, pair
}
