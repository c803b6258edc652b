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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/snapshot/snapshottest"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/store/storetest"
)

const signingKey = "rental-test-key"

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

func (r *recorder) last(t *testing.T) events.ActivityEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events)
	return r.events[len(r.events)-1]
}

type harness struct {
	store  *store.Store
	events *recorder
	router *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := storetest.Seeded(t)
	rec := &recorder{}
	am := middleware.NewAuthMiddleware(middleware.NewHMACVerifier(signingKey), st.Users)
	svc := &rentalService{
		store:  st,
		loader: loader.New(loader.FromStore(st), config.LoaderConfig{}),
		events: rec,
		auth:   am,
		now:    func() time.Time { return snapshottest.Now },
	}
	return &harness{store: st, events: rec, router: newRouter(svc, am)}
}

func bearer(t *testing.T, actor models.Actor) string {
	t.Helper()
	tok, err := middleware.SignHMAC(signingKey, &middleware.CognitoClaims{
		Sub:        actor.ID,
		CustomRole: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (h *harness) do(t *testing.T, actor models.Actor, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != "" {
		req.Header.Set("Authorization", "Bearer "+bearer(t, actor))
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

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}

var (
	admin    = snapshottest.Admin()
	landlord = snapshottest.Landlord()
	tenant   = snapshottest.Tenant()
	tenant2  = models.Actor{ID: "T2", Role: models.RoleTenant}
)

func TestRequiresToken(t *testing.T) {
	h := newHarness(t)
	code, _ := h.do(t, models.Actor{}, http.MethodGet, "/api/leases", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	code, _ := h.do(t, models.Actor{}, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestListIsScoped(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, landlord, http.MethodGet, "/api/leases", nil)
	require.Equal(t, http.StatusOK, code)
	leases := decode[[]models.Lease](t, env)
	assert.Equal(t, []string{"Lse1"}, ids(leases, func(l models.Lease) string { return l.ID }))

	code, env = h.do(t, tenant, http.MethodGet, "/api/payments", nil)
	require.Equal(t, http.StatusOK, code)
	pays := decode[[]models.Payment](t, env)
	assert.ElementsMatch(t, []string{"Pay1", "Pay2", "Pay4"}, ids(pays, func(p models.Payment) string { return p.ID }))
}

func TestGetOutsideScopeIsNotFound(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodGet, "/api/leases/Lse2", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := h.do(t, tenant, http.MethodGet, "/api/leases/Lse1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Lse1", decode[models.Lease](t, env).ID)

	code, _ = h.do(t, admin, http.MethodGet, "/api/leases/Lse2", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRelatedLookups(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, landlord, http.MethodGet, "/api/landlords/L1/properties", nil)
	require.Equal(t, http.StatusOK, code)
	props := decode[[]models.Property](t, env)
	assert.Equal(t, []string{"P1"}, ids(props, func(p models.Property) string { return p.ID }))

	code, _ = h.do(t, tenant, http.MethodGet, "/api/tenants/T2/leases", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = h.do(t, tenant, http.MethodGet, "/api/users/T1/messages", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Message](t, env), 3)
}

func TestCreatePropertyOwnership(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodPost, "/api/properties", gin.H{"name": "Nope", "landlord_id": "T1"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(t, landlord, http.MethodPost, "/api/properties", gin.H{"name": "Theirs", "landlord_id": "L2"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := h.do(t, landlord, http.MethodPost, "/api/properties", gin.H{"name": "Riverside", "city": "Kisumu"})
	require.Equal(t, http.StatusCreated, code)
	prop := decode[models.Property](t, env)
	assert.Equal(t, "L1", prop.LandlordID)
	assert.NotEmpty(t, prop.ID)

	event := h.events.last(t)
	assert.Equal(t, models.ActivityCreated, event.Type)
	assert.Equal(t, prop.ID, event.EntityID)
	assert.Equal(t, "L1", event.UserID)

	code, _ = h.do(t, admin, http.MethodPost, "/api/properties", gin.H{"name": "Bad owner", "landlord_id": "T1"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateUnitNeedsOwnProperty(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, landlord, http.MethodPost, "/api/units", gin.H{"property_id": "P2", "unit_number": "9"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env := h.do(t, landlord, http.MethodPost, "/api/units", gin.H{"property_id": "P1", "unit_number": "U9", "rent_amount": 11000})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "P1", decode[models.Unit](t, env).PropertyID)
}

func TestApplyForUnit(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodPost, "/api/applications", gin.H{"unit_id": "U1"})
	assert.Equal(t, http.StatusBadRequest, code, "occupied unit")

	code, _ = h.do(t, tenant, http.MethodPost, "/api/applications", gin.H{"unit_id": "missing"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env := h.do(t, tenant, http.MethodPost, "/api/applications", gin.H{
		"unit_id":     "U2",
		"tenant_id":   "T1",
		"status":      "approved",
		"admin_notes": "sneaky",
	})
	require.Equal(t, http.StatusCreated, code)
	app := decode[models.Application](t, env)
	assert.Equal(t, "T1", app.TenantID)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Empty(t, app.AdminNotes)

	code, _ = h.do(t, landlord, http.MethodPost, "/api/applications", gin.H{"unit_id": "U2"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestApplicationReview(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, admin, http.MethodPatch, "/api/applications/A1", gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = h.do(t, landlord, http.MethodPatch, "/api/applications/A1", gin.H{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := h.do(t, landlord, http.MethodPatch, "/api/applications/A1", gin.H{
		"landlord_recommendation": "recommended",
		"landlord_notes":          "steady income",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.RecommendationRecommended, decode[models.Application](t, env).LandlordRecommendation)
	assert.Equal(t, models.ActivityUpdated, h.events.last(t).Type)

	code, _ = h.do(t, landlord, http.MethodPatch, "/api/applications/A1", gin.H{"landlord_recommendation": "not_recommended"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, tenant2, http.MethodPatch, "/api/applications/A1", gin.H{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(t, admin, http.MethodPatch, "/api/applications/A1", gin.H{"status": "approved", "admin_notes": "welcome"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.ApplicationApproved, decode[models.Application](t, env).Status)
	assert.Equal(t, models.ActivityStatusChanged, h.events.last(t).Type)

	code, _ = h.do(t, tenant2, http.MethodPatch, "/api/applications/A1", gin.H{"status": "withdrawn"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestTerminalApplicationOnlyTakesNotes(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, admin, http.MethodPatch, "/api/applications/A2", gin.H{"status": "approved"})
	assert.Equal(t, http.StatusConflict, code)

	code, env := h.do(t, admin, http.MethodPatch, "/api/applications/A2", gin.H{"admin_notes": "unit let to T2"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "unit let to T2", decode[models.Application](t, env).AdminNotes)
}

func TestLeaseTermination(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodPatch, "/api/leases/Lse1", gin.H{"status": "terminated", "termination_reason": "moving"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(t, landlord, http.MethodPatch, "/api/leases/Lse1", gin.H{"status": "terminated"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = h.do(t, landlord, http.MethodPatch, "/api/leases/Lse2", gin.H{"rent_amount": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, env := h.do(t, landlord, http.MethodPatch, "/api/leases/Lse1", gin.H{"status": "terminated", "termination_reason": "unpaid rent"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.LeaseTerminated, decode[models.Lease](t, env).Status)
}

func TestPayments(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, landlord, http.MethodPost, "/api/payments", gin.H{
		"lease_id":  "Lse1",
		"tenant_id": "T2",
		"amount":    15000,
		"due_date":  snapshottest.Now.AddDate(0, 1, 0),
	})
	require.Equal(t, http.StatusCreated, code)
	pay := decode[models.Payment](t, env)
	assert.Equal(t, "T1", pay.TenantID)
	assert.Equal(t, models.PaymentPending, pay.Status)

	code, _ = h.do(t, tenant, http.MethodPatch, "/api/payments/Pay4", gin.H{"status": "paid"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(t, tenant, http.MethodPatch, "/api/payments/Pay4", gin.H{"method": "mpesa", "reference": "QX12"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "QX12", decode[models.Payment](t, env).Reference)

	code, env = h.do(t, landlord, http.MethodPatch, "/api/payments/Pay4", gin.H{"status": "paid"})
	require.Equal(t, http.StatusOK, code)
	paid := decode[models.Payment](t, env)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(snapshottest.Now))

	code, _ = h.do(t, landlord, http.MethodPatch, "/api/payments/Pay4", gin.H{"status": "overdue"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestMaintenance(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodPost, "/api/maintenance", gin.H{"unit_id": "U3", "title": "Not mine"})
	assert.Equal(t, http.StatusForbidden, code, "applied-for unit is visible but not leased")

	code, env := h.do(t, tenant, http.MethodPost, "/api/maintenance", gin.H{"unit_id": "U1", "title": "Door sticks", "priority": "low", "status": "completed"})
	require.Equal(t, http.StatusCreated, code)
	req := decode[models.MaintenanceRequest](t, env)
	assert.Equal(t, "T1", req.TenantID)
	assert.Equal(t, models.MaintenanceOpen, req.Status)

	code, _ = h.do(t, tenant, http.MethodPatch, "/api/maintenance/M1", gin.H{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(t, landlord, http.MethodPatch, "/api/maintenance/M1", gin.H{"status": "in_progress", "priority": "urgent"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.PriorityUrgent, decode[models.MaintenanceRequest](t, env).Priority)

	code, env = h.do(t, tenant, http.MethodPatch, "/api/maintenance/M1", gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, decode[models.MaintenanceRequest](t, env).ResolvedAt)

	code, _ = h.do(t, landlord, http.MethodPost, "/api/maintenance/M1/comments", gin.H{"content": "Closing this out"})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, models.ActivityCommented, h.events.last(t).Type)

	code, _ = h.do(t, tenant, http.MethodPost, "/api/maintenance/M2/comments", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMessages(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodPost, "/api/messages", gin.H{"receiver_id": "T2", "content": "hello"})
	assert.Equal(t, http.StatusNotFound, code, "not a contact")

	code, env := h.do(t, tenant, http.MethodPost, "/api/messages", gin.H{"receiver_id": "L1", "sender_id": "ADM", "content": "Any update?", "read": true})
	require.Equal(t, http.StatusCreated, code)
	msg := decode[models.Message](t, env)
	assert.Equal(t, "T1", msg.SenderID)
	assert.False(t, msg.Read)

	code, _ = h.do(t, tenant, http.MethodPost, "/api/messages/Msg1/read", nil)
	assert.Equal(t, http.StatusForbidden, code, "sender cannot mark read")

	code, env = h.do(t, landlord, http.MethodPost, "/api/messages/Msg1/read", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[models.Message](t, env).Read)
	assert.Equal(t, models.ActivityMessageRead, h.events.last(t).Type)

	code, _ = h.do(t, tenant, http.MethodPatch, "/api/messages/Msg3", gin.H{"read": false})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, tenant, http.MethodPatch, "/api/messages/Msg1", gin.H{"content": "edited"})
	assert.Equal(t, http.StatusForbidden, code, "already read")
}

func TestUserPatch(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, tenant, http.MethodPatch, "/api/users/L1", gin.H{"first_name": "X"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(t, tenant, http.MethodPatch, "/api/users/T1", gin.H{"status": "suspended"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(t, admin, http.MethodPatch, "/api/users/T1", gin.H{"role": "admin"})
	assert.Equal(t, http.StatusConflict, code)

	code, env := h.do(t, tenant, http.MethodPatch, "/api/users/T1", gin.H{"phone": "555-0199"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "555-0199", decode[models.User](t, env).Phone)
	assert.Equal(t, models.ActivityProfileUpdate, h.events.last(t).Type)

	code, _ = h.do(t, landlord, http.MethodPost, "/api/users", gin.H{"role": "tenant", "email": "new@example.com"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(t, admin, http.MethodPost, "/api/users", gin.H{"role": "tenant", "email": "new@example.com"})
	require.Equal(t, http.StatusCreated, code)
	created := decode[models.User](t, env)
	assert.Equal(t, models.UserStatusActive, created.Status)

	stored, err := h.store.Users.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.Email)
}

func TestActivities(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, tenant, http.MethodGet, "/api/activities", nil)
	require.Equal(t, http.StatusOK, code)
	acts := decode[[]models.Activity](t, env)
	assert.Equal(t, []string{"Act1"}, ids(acts, func(a models.Activity) string { return a.ID }))
}
