package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/provider/whoop"
	"auth-gateway/internal/email"
	"auth-gateway/internal/magiclink"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/ratelimit"
	"auth-gateway/internal/session"
	"auth-gateway/internal/signup"
	"auth-gateway/internal/users"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*users.User
	nextID  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*users.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u users.NewUser) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[u.Email]; exists {
		return nil, users.ErrEmailTaken
	}
	f.nextID++
	user := &users.User{
		ID:            fmt.Sprintf("u%d", f.nextID),
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
	f.byEmail[u.Email] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email], nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindOrCreateByEmail(ctx context.Context, email string, name *string, verified bool) (*users.User, error) {
	if u, _ := f.FindByEmail(ctx, email); u != nil {
		return u, nil
	}
	var verifiedAt *time.Time
	if verified {
		now := time.Now()
		verifiedAt = &now
	}
	return f.Create(ctx, users.NewUser{Email: email, Name: name, EmailVerified: verifiedAt})
}

func (f *fakeUserStore) SetBackendUserID(context.Context, string, string) error { return nil }

func (f *fakeUserStore) MarkEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id && u.EmailVerified == nil {
			now := time.Now()
			u.EmailVerified = &now
		}
	}
	return nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]magiclink.Token
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]magiclink.Token)}
}

func (m *memTokenStore) Create(_ context.Context, t magiclink.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Token] = t
	return nil
}

func (m *memTokenStore) Consume(_ context.Context, value string) (*magiclink.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[value]
	if !ok {
		return nil, nil
	}
	delete(m.tokens, value)
	return &t, nil
}

func (m *memTokenStore) PurgeExpired(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64
	for k, t := range m.tokens {
		if t.Expires.Before(time.Now()) {
			delete(m.tokens, k)
			purged++
		}
	}
	return purged, nil
}

type fakeRegistrar struct {
	err error
}

func (f *fakeRegistrar) RegisterWebUser(context.Context, string, *string, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "backend-1", nil
}

type fakeOIDCProvider struct {
	identity *provider.Identity
	err      error
}

func (f *fakeOIDCProvider) Name() string { return "fakeidp" }

func (f *fakeOIDCProvider) AuthCodeURL(state, challenge string) string {
	return "https://idp.example.com/authorize?state=" + state + "&code_challenge=" + challenge
}

func (f *fakeOIDCProvider) ExchangeCode(context.Context, string, string) (*provider.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

// --- fixture ---

type fixture struct {
	router   *gin.Engine
	users    *fakeUserStore
	tokens   *memTokenStore
	sessions *session.Manager
	idp      *fakeOIDCProvider
	restarts chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userStore := newFakeUserStore()
	tokenStore := newMemTokenStore()
	sessions := session.NewManager("test-secret")
	cookies := session.CookieOptions{SameSite: http.SameSiteLaxMode}

	magicService := magiclink.NewService(
		userStore, tokenStore, email.ConsoleSender{}, "https://app.example.com",
	)
	signupService := signup.NewService(userStore, &fakeRegistrar{})

	limiterRedis := miniredis.RunT(t)
	limiterClient := goredis.NewClient(&goredis.Options{Addr: limiterRedis.Addr()})
	t.Cleanup(func() { _ = limiterClient.Close() })
	limiter := ratelimit.NewLimiter(limiterClient, "magiclink:", 5, time.Minute)

	idp := &fakeOIDCProvider{}
	registry := provider.NewRegistry(idp)
	whoopProvider, err := whoop.New("whoop-client", "https://app.example.com/oauth/callback/whoop")
	require.NoError(t, err)
	registry.AddConnector(whoopProvider)

	restarts := make(chan struct{}, 1)

	h := NewHandler(
		signupService,
		magicService,
		sessions,
		registry,
		userStore,
		limiter,
		cookies,
		func() { restarts <- struct{}{} },
	)

	router := gin.New()
	h.RegisterRoutes(router, middleware.NewAuthMiddleware(sessions))

	return &fixture{
		router:   router,
		users:    userStore,
		tokens:   tokenStore,
		sessions: sessions,
		idp:      idp,
		restarts: restarts,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	credential, _, err := f.sessions.Issue(userID, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: credential}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- signup ---

func TestSignupEndpoint_CreatesUser(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/signup",
		gin.H{"email": "a@x.com", "password": "p"})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotEmpty(t, body["id"])

	user := f.users.byEmail["a@x.com"]
	require.NotNil(t, user)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "p", *user.PasswordHash)
}

func TestSignupEndpoint_DuplicateSameIDAndShape(t *testing.T) {
	f := newFixture(t)

	first := decode(t, f.do(t, http.MethodPost, "/auth/signup",
		gin.H{"email": "a@x.com", "password": "p"}))

	w := f.do(t, http.MethodPost, "/auth/signup",
		gin.H{"email": "a@x.com", "password": "different"})

	require.Equal(t, http.StatusCreated, w.Code)
	second := decode(t, w)
	assert.Equal(t, first["id"], second["id"])
	assert.Len(t, f.users.byEmail, 1)
}

func TestSignupEndpoint_MissingFields(t *testing.T) {
	f := newFixture(t)

	for _, body := range []gin.H{
		{"password": "p"},
		{"email": "a@x.com"},
		{},
	} {
		w := f.do(t, http.MethodPost, "/auth/signup", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

// --- magic link request ---

func TestRequestMagicLink_ConstantResponseBothBranches(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "a@x.com", "password": "p"})

	known := f.do(t, http.MethodPost, "/auth/request-magic-link", gin.H{"email": "a@x.com"})
	unknown := f.do(t, http.MethodPost, "/auth/request-magic-link", gin.H{"email": "nobody@x.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String(),
		"response must not reveal whether the address is registered")
	assert.JSONEq(t,
		`{"message":"If that email exists, a magic link has been sent."}`,
		unknown.Body.String(),
	)
}

func TestRequestMagicLink_UnknownEmailCreatesNoToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/request-magic-link", gin.H{"email": "nobody@x.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.tokens.tokens)
}

func TestRequestMagicLink_MissingEmail(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/request-magic-link", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestMagicLink_RateLimited(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		w := f.do(t, http.MethodPost, "/auth/request-magic-link", gin.H{"email": "Heavy@x.com"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Case-folded: a mixed-case retry burns the same budget.
	w := f.do(t, http.MethodPost, "/auth/request-magic-link", gin.H{"email": "heavy@X.com"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
}

// --- magic link redeem redirect ---

func TestValidateMagicToken_MissingToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/auth/validate-magic-token", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=InvalidToken", w.Header().Get("Location"))
}

func TestValidateMagicToken_RedirectsWithToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/auth/validate-magic-token?token=tok%2B1", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?magic-token=tok%2B1", w.Header().Get("Location"))
}

// --- exchange ---

func issueToken(t *testing.T, f *fixture, email string) string {
	t.Helper()
	require.NoError(t, f.tokens.Create(context.Background(), magiclink.Token{
		Identifier: email,
		Token:      "tok-" + email,
		Expires:    time.Now().Add(magiclink.TokenTTL),
	}))
	return "tok-" + email
}

func TestExchangeMagicToken_IssuesSession(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "a@x.com", "password": "p"})
	token := issueToken(t, f, "a@x.com")

	w := f.do(t, http.MethodPost, "/api/auth/magic-token", gin.H{"token": token})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "a@x.com", body["email"])

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	userID, _, err := f.sessions.Verify(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, body["id"], userID)
}

func TestExchangeMagicToken_SingleUse(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "a@x.com", "password": "p"})
	token := issueToken(t, f, "a@x.com")

	first := f.do(t, http.MethodPost, "/api/auth/magic-token", gin.H{"token": token})
	second := f.do(t, http.MethodPost, "/api/auth/magic-token", gin.H{"token": token})

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusUnauthorized, second.Code)
}

func TestExchangeMagicToken_Expired(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "a@x.com", "password": "p"})

	require.NoError(t, f.tokens.Create(context.Background(), magiclink.Token{
		Identifier: "a@x.com",
		Token:      "stale",
		Expires:    time.Now().Add(-time.Second),
	}))

	w := f.do(t, http.MethodPost, "/api/auth/magic-token", gin.H{"token": "stale"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExchangeMagicToken_MissingToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/magic-token", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- session info / logout ---

func TestSessionInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/auth/session", nil, f.sessionCookie(t, "u1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", decode(t, w)["user_id"])
}

func TestLogout_ClearsCookiesIdempotently(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/logout", nil, f.sessionCookie(t, "u1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, w.Result().Cookies(), 2)

	w = f.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// --- oauth connect ---

func TestConnect_RequiresSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/oauth/whoop", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConnect_UnconfiguredProvider(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/oauth/garmin", nil, f.sessionCookie(t, "u1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConnect_RedirectsWithUserState(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/oauth/whoop", nil, f.sessionCookie(t, "user-42"))

	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	query := location.Query()
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "whoop-client", query.Get("client_id"))
	assert.Equal(t, "https://app.example.com/oauth/callback/whoop", query.Get("redirect_uri"))
	assert.Equal(t, "user-42", query.Get("state"))
	assert.Contains(t, query.Get("scope"), "read:recovery")
}

// --- settings / cron ---

func TestRestart_RequiresSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/settings/restart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	select {
	case <-f.restarts:
		t.Fatal("unauthenticated request must not trigger a restart")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRestart_RespondsBeforeRestarting(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/settings/restart", nil, f.sessionCookie(t, "u1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"restarting":true}`, w.Body.String())

	select {
	case <-f.restarts:
	case <-time.After(2 * time.Second):
		t.Fatal("restart was never triggered")
	}
}

func TestPurgeTokens(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.tokens.Create(context.Background(), magiclink.Token{
		Identifier: "a@x.com", Token: "stale", Expires: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, f.tokens.Create(context.Background(), magiclink.Token{
		Identifier: "a@x.com", Token: "fresh", Expires: time.Now().Add(time.Minute),
	}))

	w := f.do(t, http.MethodPost, "/api/cron/purge-tokens", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["purged"])
	assert.Contains(t, f.tokens.tokens, "fresh")
}

func TestLogin_UnknownProvider(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/auth/login/unknown", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- oidc callback ---

func (f *fixture) doCallback(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodGet, "/auth/callback/fakeidp?state=s1&code=c1", nil,
		&http.Cookie{Name: stateCookieName, Value: "s1"},
		&http.Cookie{Name: pkceCookieName, Value: "verifier"},
	)
}

func TestCallback_CreatesUserWithDisplayName(t *testing.T) {
	f := newFixture(t)
	f.idp.identity = &provider.Identity{
		Provider:       "fakeidp",
		ProviderUserID: "sub-1",
		Email:          "ada@x.com",
		EmailVerified:  true,
		Name:           "Ada Lovelace",
	}

	w := f.doCallback(t)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	user := f.users.byEmail["ada@x.com"]
	require.NotNil(t, user)
	require.NotNil(t, user.Name)
	assert.Equal(t, "Ada Lovelace", *user.Name)
	require.NotNil(t, user.EmailVerified)

	var credential string
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			credential = c.Value
		}
	}
	require.NotEmpty(t, credential)
	userID, _, err := f.sessions.Verify(credential)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestCallback_NoNameClaim(t *testing.T) {
	f := newFixture(t)
	f.idp.identity = &provider.Identity{
		Provider:       "fakeidp",
		ProviderUserID: "sub-2",
		Email:          "noname@x.com",
		EmailVerified:  true,
	}

	w := f.doCallback(t)

	require.Equal(t, http.StatusFound, w.Code)
	user := f.users.byEmail["noname@x.com"]
	require.NotNil(t, user)
	assert.Nil(t, user.Name)
}

func TestCallback_StateMismatch(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/auth/callback/fakeidp?state=wrong&code=c1", nil,
		&http.Cookie{Name: stateCookieName, Value: "s1"},
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
