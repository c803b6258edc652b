package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-rental-management/shared/cache"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/store/storetest"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

const signingKey = "auth-test-key"

type identity struct {
	sub      string
	password string
}

// fakeIdP issues HMAC tokens for a fixed set of identities.
type fakeIdP struct {
	mu         sync.Mutex
	identities map[string]identity
	down       bool
	deleted    []string
	confirmed  []string
}

func newIdP() *fakeIdP {
	return &fakeIdP{identities: map[string]identity{
		"ada@example.com":   {sub: "ADM", password: "admin-pass"},
		"lena@example.com":  {sub: "L1", password: "landlord-pass"},
		"tom@example.com":   {sub: "T1", password: "tenant-pass"},
		"tia@example.com":   {sub: "T2", password: "tenant-pass"},
		"ghost@example.com": {sub: "nobody", password: "ghost-pass"},
	}}
}

func (f *fakeIdP) tokens(sub string) (*AuthTokens, error) {
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	access, err := middleware.SignHMAC(signingKey, &middleware.CognitoClaims{
		Sub:              sub,
		TokenUse:         "access",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp, ID: uuid.NewString()},
	})
	if err != nil {
		return nil, err
	}
	id, err := middleware.SignHMAC(signingKey, &middleware.CognitoClaims{
		Sub:              sub,
		TokenUse:         "id",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	})
	if err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: access, IDToken: id, RefreshToken: "refresh-" + sub, ExpiresIn: 3600}, nil
}

func (f *fakeIdP) SignIn(ctx context.Context, username, password string) (*AuthTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, utils.ErrCircuitOpen
	}
	ident, ok := f.identities[username]
	if !ok || ident.password != password {
		return nil, ErrInvalidCredentials
	}
	return f.tokens(ident.sub)
}

func (f *fakeIdP) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.identities[in.Username]; ok {
		return "", ErrUsernameTaken
	}
	sub := uuid.NewString()
	if in.Username == "clash@example.com" {
		sub = "T1"
	}
	f.identities[in.Username] = identity{sub: sub, password: in.Password}
	return sub, nil
}

func (f *fakeIdP) Refresh(ctx context.Context, refreshToken, username string) (*AuthTokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ident := range f.identities {
		if refreshToken == "refresh-"+ident.sub {
			return f.tokens(ident.sub)
		}
	}
	return nil, ErrInvalidCredentials
}

func (f *fakeIdP) ConfirmSignUp(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, username)
	return nil
}

func (f *fakeIdP) DeleteUser(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, username)
	delete(f.identities, username)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.ActivityEvent
}

func (r *recorder) Publish(e events.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []models.ActivityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ActivityType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	idp      *fakeIdP
	store    *store.Store
	sessions *cache.SessionStore
	events   *recorder
	router   *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := cache.NewMemoryKVStore()
	h := &harness{
		idp:      newIdP(),
		store:    storetest.Seeded(t),
		sessions: cache.NewSessionStore(kv, time.Hour),
		events:   &recorder{},
	}
	am := middleware.NewAuthMiddleware(
		middleware.NewHMACVerifier(signingKey),
		h.store.Users,
		middleware.WithActorCache(cache.NewActorCache(kv, time.Minute)),
		middleware.WithSessions(h.sessions),
	)
	h.router = newRouter(&authService{
		idp:      h.idp,
		store:    h.store,
		sessions: h.sessions,
		auth:     am,
		events:   h.events,
		now:      time.Now,
	})
	return h
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (h *harness) do(t *testing.T, token, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (h *harness) login(t *testing.T, username, password string) LoginResponse {
	t.Helper()
	code, env := h.do(t, "", http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, code, env.Error)
	return decode[LoginResponse](t, env)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	resp := h.login(t, "lena@example.com", "landlord-pass")
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.User)
	assert.Equal(t, "L1", resp.User.ID)

	code, env := h.do(t, resp.AccessToken, http.MethodGet, "/auth/verify", nil)
	require.Equal(t, http.StatusOK, code)
	actor := decode[models.Actor](t, env)
	assert.Equal(t, models.RoleLandlord, actor.Role)

	stored, err := h.store.Users.GetByID(context.Background(), "L1")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
	assert.Contains(t, h.events.types(), models.ActivityLogin)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, "", http.MethodPost, "/auth/login", gin.H{"username": "lena@example.com"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, "", http.MethodPost, "/auth/login", LoginRequest{Username: "lena@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := h.do(t, "", http.MethodPost, "/auth/login", LoginRequest{Username: "ghost@example.com", Password: "ghost-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not registered", env.Error)

	_, err := h.store.UpdateUser(context.Background(), "T2", store.UserPatch{Status: ptr(models.UserStatusSuspended)})
	require.NoError(t, err)
	code, _ = h.do(t, "", http.MethodPost, "/auth/login", LoginRequest{Username: "tia@example.com", Password: "tenant-pass"})
	assert.Equal(t, http.StatusForbidden, code)

	h.idp.down = true
	code, _ = h.do(t, "", http.MethodPost, "/auth/login", LoginRequest{Username: "lena@example.com", Password: "landlord-pass"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t)
	resp := h.login(t, "tom@example.com", "tenant-pass")

	code, _ := h.do(t, resp.AccessToken, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(t, resp.AccessToken, http.MethodGet, "/auth/verify", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, "", http.MethodPost, "/auth/register", RegisterRequest{
		Username:  "nina@example.com",
		Password:  "long-enough",
		Role:      "landlord",
		FirstName: " Nina ",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	user := decode[models.User](t, env)
	assert.Equal(t, models.RoleLandlord, user.Role)
	assert.Equal(t, "Nina", user.FirstName)
	assert.Equal(t, user.ID, user.CognitoID)

	stored, err := h.store.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "nina@example.com", stored.Email)

	resp := h.login(t, "nina@example.com", "long-enough")
	assert.Equal(t, user.ID, resp.User.ID)

	code, _ = h.do(t, "", http.MethodPost, "/auth/register", RegisterRequest{Username: "nina@example.com", Password: "long-enough"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, "", http.MethodPost, "/auth/register", RegisterRequest{Username: "boss@example.com", Password: "long-enough", Role: "admin"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, "", http.MethodPost, "/auth/register", RegisterRequest{Username: "short@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegisterCompensatesFailedInsert(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, "", http.MethodPost, "/auth/register", RegisterRequest{Username: "clash@example.com", Password: "long-enough"})
	assert.NotEqual(t, http.StatusCreated, code)
	assert.Equal(t, []string{"clash@example.com"}, h.idp.deleted)

	stored, err := h.store.Users.GetByID(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "tom@example.com", stored.Email)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, "", http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "refresh-T1"})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decode[map[string]any](t, env)["access_token"])

	code, _ = h.do(t, "", http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "stolen"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	resp := h.login(t, "tom@example.com", "tenant-pass")

	code, env := h.do(t, resp.AccessToken, http.MethodGet, "/auth/profile", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Tom", decode[models.User](t, env).FirstName)

	code, env = h.do(t, resp.AccessToken, http.MethodPut, "/auth/profile", gin.H{
		"first_name": "Thomas",
		"email":      "thomas@example.com",
		"role":       "admin",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	user := decode[models.User](t, env)
	assert.Equal(t, "Thomas", user.FirstName)
	assert.Equal(t, models.RoleTenant, user.Role)

	session, err := h.sessions.Get(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "thomas@example.com", session.Actor.Email)

	code, env = h.do(t, resp.AccessToken, http.MethodGet, "/auth/verify", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "thomas@example.com", decode[models.Actor](t, env).Email)
	assert.Contains(t, h.events.types(), models.ActivityProfileUpdate)
}

func TestUserAdministration(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, "ada@example.com", "admin-pass").AccessToken
	tenant := h.login(t, "tia@example.com", "tenant-pass").AccessToken

	code, _ := h.do(t, tenant, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := h.do(t, admin, http.MethodGet, "/users?role=landlord", nil)
	require.Equal(t, http.StatusOK, code)
	var ids []string
	for _, u := range decode[[]models.User](t, env) {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{"L1", "L2"}, ids)

	code, _ = h.do(t, admin, http.MethodGet, "/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(t, admin, http.MethodPut, "/users/T2/status", StatusRequest{Status: "retired"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = h.do(t, admin, http.MethodPut, "/users/T2/status", StatusRequest{Status: models.UserStatusSuspended})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, models.UserStatusSuspended, decode[models.User](t, env).Status)

	code, _ = h.do(t, tenant, http.MethodGet, "/auth/verify", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(t, admin, http.MethodPost, "/users/T1/confirm", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"tom@example.com"}, h.idp.confirmed)
}

func ptr[T any](v T) *T {
	return &v
}
