package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-tracker/internal/configsync"
	domainPet "pet-tracker/internal/domain/pet"
	domainUser "pet-tracker/internal/domain/user"
	"pet-tracker/internal/infrastructure/database/postgres"
	"pet-tracker/internal/ingestion"
	"pet-tracker/internal/middleware"
	"pet-tracker/internal/usecase/device"
	"pet-tracker/internal/usecase/safezone"
	"pet-tracker/internal/usecase/user"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

type stubSync struct {
	triggered []string
}

func (s *stubSync) TriggerAutoConfig(deviceID string)   { s.triggered = append(s.triggered, deviceID) }
func (s *stubSync) TriggerRegistration(deviceID string) { s.triggered = append(s.triggered, deviceID) }
func (s *stubSync) TriggerProfileChange(deviceID string) {
	s.triggered = append(s.triggered, deviceID)
}
func (s *stubSync) Dispatch(context.Context, string, configsync.Trigger) error {
	return nil
}
func (s *stubSync) ResetConfig(context.Context, string) error { return nil }
func (s *stubSync) Stats() ingestion.SyncStats                { return ingestion.SyncStats{ConfigsDispatched: 3} }
func (s *stubSync) PendingDispatches() int                    { return 1 }

type stubBroker struct{ state pkgmqtt.State }

func (b stubBroker) State() pkgmqtt.State { return b.state }

type stubDB struct{ err error }

func (d stubDB) Health() error { return d.err }

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*is.I, *gin.Engine, *domainUser.User, *domainPet.Pet, *stubSync) {
	t.Helper()
	is := is.New(t)
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	db, err := postgres.NewSQLiteDB()
	is.NoErr(err)
	t.Cleanup(func() { _ = db.Close() })

	users := postgres.NewUserRepository(db)
	pets := postgres.NewPetRepository(db, domainPet.DefaultLimits())
	devices := postgres.NewDeviceRepository(db)

	phone := "+84912345678"
	owner := &domainUser.User{Email: "owner@example.com", FullName: "Linh", PhoneNumber: &phone, Role: domainUser.RoleOwner, IsActive: true}
	is.NoErr(users.Create(ctx, owner))
	p := &domainPet.Pet{OwnerID: owner.ID, Name: "Milo"}
	is.NoErr(pets.Create(ctx, p))

	sync := &stubSync{}
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader("X-Test-User")); err == nil {
			c.Set(middleware.UserIDKey, id)
		}
		c.Next()
	})
	NewSafeZoneHandler(safezone.NewService(pets, devices, sync, domainPet.DefaultLimits())).RegisterRoutes(api)
	deviceHandler := NewDeviceHandler(device.NewService(devices, pets, users, sync))
	deviceHandler.RegisterRoutes(api)
	NewProfileHandler(user.NewService(users, devices, sync)).RegisterProfileRoutes(api)
	admin := api.Group("/admin")
	deviceHandler.RegisterAdminRoutes(admin)
	NewAdminHandler(sync, stubBroker{pkgmqtt.StateConnected}).RegisterAdminRoutes(admin)

	return is, r, owner, p, sync
}

func call(r http.Handler, method, path string, user uuid.UUID, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestSafeZoneEndpoints(t *testing.T) {
	is, r, owner, p, sync := setup(t)
	base := "/api/v1/pets/" + p.ID.String() + "/safe-zones"

	w, _ := call(r, http.MethodPost, "/api/v1/devices", owner.ID, map[string]any{"device_id": "PT-0001", "pet_id": p.ID})
	is.Equal(w.Code, http.StatusCreated)

	w, env := call(r, http.MethodPost, base, owner.ID, map[string]any{
		"name": "Home", "latitude": 10.77, "longitude": 106.69, "radius": 50,
	})
	is.Equal(w.Code, http.StatusCreated)
	var zone safezone.SafeZoneResponse
	is.NoErr(json.Unmarshal(env.Data, &zone))
	is.True(zone.IsPrimary)

	w, env = call(r, http.MethodGet, base, owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)
	var list safezone.SafeZoneListResponse
	is.NoErr(json.Unmarshal(env.Data, &list))
	is.Equal(list.Count, 1)

	w, _ = call(r, http.MethodPost, base+"/"+zone.ID.String()+"/toggle", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)

	w, _ = call(r, http.MethodDelete, base+"/"+uuid.NewString(), owner.ID, nil)
	is.Equal(w.Code, http.StatusNotFound)

	w, _ = call(r, http.MethodDelete, base+"/"+zone.ID.String(), owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)

	// registration + create + toggle + delete
	is.Equal(sync.triggered, []string{"PT-0001", "PT-0001", "PT-0001", "PT-0001"})
}

func TestSafeZoneEndpointErrors(t *testing.T) {
	is, r, owner, p, _ := setup(t)
	base := "/api/v1/pets/" + p.ID.String() + "/safe-zones"

	w, _ := call(r, http.MethodGet, base, uuid.Nil, nil)
	is.Equal(w.Code, http.StatusUnauthorized)

	w, _ = call(r, http.MethodGet, base, uuid.New(), nil)
	is.Equal(w.Code, http.StatusForbidden)

	w, _ = call(r, http.MethodGet, "/api/v1/pets/not-a-uuid/safe-zones", owner.ID, nil)
	is.Equal(w.Code, http.StatusBadRequest)

	w, env := call(r, http.MethodPost, base, owner.ID, map[string]any{"latitude": 10, "longitude": 10, "radius": 50})
	is.Equal(w.Code, http.StatusBadRequest)
	is.True(!env.Success)

	w, _ = call(r, http.MethodGet, "/api/v1/pets/"+uuid.NewString()+"/safe-zones", owner.ID, nil)
	is.Equal(w.Code, http.StatusNotFound)
}

func TestDeviceEndpoints(t *testing.T) {
	is, r, owner, p, _ := setup(t)

	w, _ := call(r, http.MethodPost, "/api/v1/devices", owner.ID, map[string]any{"device_id": "PT-0001", "pet_id": p.ID})
	is.Equal(w.Code, http.StatusCreated)

	w, env := call(r, http.MethodGet, "/api/v1/devices/PT-0001", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)
	var dev device.DeviceResponse
	is.NoErr(json.Unmarshal(env.Data, &dev))
	is.True(dev.IsActive)

	w, _ = call(r, http.MethodGet, "/api/v1/devices/PT-0001", uuid.New(), nil)
	is.Equal(w.Code, http.StatusForbidden)

	w, _ = call(r, http.MethodPost, "/api/v1/devices/PT-0001/sync", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)

	w, env = call(r, http.MethodPost, "/api/v1/devices/PT-0001/deactivate", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)
	is.NoErr(json.Unmarshal(env.Data, &dev))
	is.True(!dev.IsActive)

	w, _ = call(r, http.MethodDelete, "/api/v1/admin/devices/PT-0001/config", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)
}

func TestAdminStats(t *testing.T) {
	is, r, owner, _, _ := setup(t)

	w, env := call(r, http.MethodGet, "/api/v1/admin/sync/stats", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)

	var stats SyncStatsResponse
	is.NoErr(json.Unmarshal(env.Data, &stats))
	is.Equal(stats.ConfigsDispatched, int64(3))
	is.Equal(stats.PendingDispatches, 1)
	is.Equal(stats.BrokerState, pkgmqtt.StateConnected.String())
}

func TestHealth(t *testing.T) {
	is := is.New(t)
	gin.SetMode(gin.TestMode)

	cases := []struct {
		db     stubDB
		broker pkgmqtt.State
		code   int
		status string
	}{
		{stubDB{}, pkgmqtt.StateConnected, http.StatusOK, "healthy"},
		{stubDB{}, pkgmqtt.StateReconnecting, http.StatusOK, "degraded"},
		{stubDB{err: errors.New("down")}, pkgmqtt.StateConnected, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/health", NewHealthHandler(tc.db, stubBroker{tc.broker}).Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		is.Equal(w.Code, tc.code)

		var body map[string]string
		is.NoErr(json.Unmarshal(w.Body.Bytes(), &body))
		is.Equal(body["status"], tc.status)
	}
}

func TestStatusMapping(t *testing.T) {
	is := is.New(t)
	is.Equal(statusFor(domainPet.ErrSafeZoneNotFound), http.StatusNotFound)
	is.Equal(statusFor(errors.New("boom")), http.StatusInternalServerError)
}

func TestProfileEndpoints(t *testing.T) {
	is, r, owner, _, _ := setup(t)

	w, env := call(r, http.MethodGet, "/api/v1/profile", owner.ID, nil)
	is.Equal(w.Code, http.StatusOK)
	var profile user.UserResponse
	is.NoErr(json.Unmarshal(env.Data, &profile))
	is.Equal(profile.Email, "owner@example.com")

	w, env = call(r, http.MethodPut, "/api/v1/profile", owner.ID, map[string]any{"full_name": "Linh Tran"})
	is.Equal(w.Code, http.StatusOK)
	is.NoErr(json.Unmarshal(env.Data, &profile))
	is.Equal(profile.FullName, "Linh Tran")

	w, _ = call(r, http.MethodGet, "/api/v1/profile", uuid.New(), nil)
	is.Equal(w.Code, http.StatusNotFound)
}
