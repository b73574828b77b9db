package device

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pet-tracker/internal/configsync"
	domainDevice "pet-tracker/internal/domain/device"
	domainPet "pet-tracker/internal/domain/pet"
	domainUser "pet-tracker/internal/domain/user"
	"pet-tracker/internal/infrastructure/database/postgres"
	appErrors "pet-tracker/pkg/errors"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/google/uuid"
	"github.com/matryer/is"
)

type fakeDispatcher struct {
	mu          sync.Mutex
	registered  []string
	dispatched  []configsync.Trigger
	reset       []string
	dispatchErr error
}

func (f *fakeDispatcher) TriggerRegistration(deviceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, deviceID)
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ string, trigger configsync.Trigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, trigger)
	return f.dispatchErr
}

func (f *fakeDispatcher) ResetConfig(_ context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset = append(f.reset, deviceID)
	return nil
}

type testEnv struct {
	svc        *Service
	dispatcher *fakeDispatcher
	owner      *domainUser.User
	pet        *domainPet.Pet
	users      domainUser.Repository
	pets       domainPet.Repository
}

func testSetup(t *testing.T) (*is.I, context.Context, *testEnv) {
	t.Helper()
	is := is.New(t)
	ctx := context.Background()

	db, err := postgres.NewSQLiteDB()
	is.NoErr(err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		dispatcher: &fakeDispatcher{},
		users:      postgres.NewUserRepository(db),
		pets:       postgres.NewPetRepository(db, domainPet.DefaultLimits()),
	}
	env.svc = NewService(postgres.NewDeviceRepository(db), env.pets, env.users, env.dispatcher)

	env.owner = env.newOwner(t, "owner@example.com")
	env.pet = env.newPet(t, env.owner.ID)
	return is, ctx, env
}

func (e *testEnv) newOwner(t *testing.T, email string) *domainUser.User {
	phone := "+84912345678"
	u := &domainUser.User{Email: email, FullName: "Owner", PhoneNumber: &phone, Role: domainUser.RoleOwner, IsActive: true}
	is.New(t).NoErr(e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) newPet(t *testing.T, ownerID uuid.UUID) *domainPet.Pet {
	p := &domainPet.Pet{OwnerID: ownerID, Name: "Milo"}
	is.New(t).NoErr(e.pets.Create(context.Background(), p))
	return p
}

func TestRegisterCreatesAndSchedulesFirstConfig(t *testing.T) {
	is, ctx, env := testSetup(t)

	resp, err := env.svc.Register(ctx, env.owner.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: env.pet.ID})
	is.NoErr(err)
	is.True(resp.IsActive)
	is.True(!resp.ConfigSent)
	is.Equal(resp.PetID, env.pet.ID)
	is.Equal(env.dispatcher.registered, []string{"PT-0001"})
}

func TestRegisterIsIdempotentForSameOwner(t *testing.T) {
	is, ctx, env := testSetup(t)
	req := &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: env.pet.ID}

	_, err := env.svc.Register(ctx, env.owner.ID, req)
	is.NoErr(err)
	_, err = env.svc.Deactivate(ctx, env.owner.ID, "PT-0001")
	is.NoErr(err)

	resp, err := env.svc.Register(ctx, env.owner.ID, req)
	is.NoErr(err)
	is.True(resp.IsActive)

	list, err := env.svc.ListByOwner(ctx, env.owner.ID)
	is.NoErr(err)
	is.Equal(list.Total, 1)
}

func TestRegisterRefusesDeviceActiveElsewhere(t *testing.T) {
	is, ctx, env := testSetup(t)
	_, err := env.svc.Register(ctx, env.owner.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: env.pet.ID})
	is.NoErr(err)

	other := env.newOwner(t, "other@example.com")
	otherPet := env.newPet(t, other.ID)

	_, err = env.svc.Register(ctx, other.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: otherPet.ID})
	is.True(errors.Is(err, domainDevice.ErrDevicePairedElsewhere))

	// once released, the device can move
	_, err = env.svc.Deactivate(ctx, env.owner.ID, "PT-0001")
	is.NoErr(err)
	resp, err := env.svc.Register(ctx, other.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: otherPet.ID})
	is.NoErr(err)
	is.Equal(resp.OwnerID, other.ID)
}

func TestRegisterRejectsForeignPetAndBadID(t *testing.T) {
	is, ctx, env := testSetup(t)
	other := env.newOwner(t, "other@example.com")

	_, err := env.svc.Register(ctx, other.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: env.pet.ID})
	is.True(errors.Is(err, domainPet.ErrNotPetOwner))

	_, err = env.svc.Register(ctx, env.owner.ID, &RegisterDeviceRequest{DeviceID: "PT/+/#", PetID: env.pet.ID})
	is.True(errors.Is(err, domainDevice.ErrInvalidDeviceID))

	_, err = env.svc.Register(ctx, env.owner.ID, &RegisterDeviceRequest{DeviceID: "", PetID: env.pet.ID})
	is.Equal(appErrors.CodeOf(err), appErrors.CodeValidation)

	is.Equal(len(env.dispatcher.registered), 0)
}

func TestOwnershipIsEnforced(t *testing.T) {
	is, ctx, env := testSetup(t)
	_, err := env.svc.Register(ctx, env.owner.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: env.pet.ID})
	is.NoErr(err)

	stranger := uuid.New()
	_, err = env.svc.Get(ctx, stranger, "PT-0001")
	is.True(errors.Is(err, domainDevice.ErrNotDeviceOwner))
	_, err = env.svc.Sync(ctx, stranger, "PT-0001")
	is.True(errors.Is(err, domainDevice.ErrNotDeviceOwner))
	_, err = env.svc.Get(ctx, env.owner.ID, "PT-9999")
	is.True(errors.Is(err, domainDevice.ErrDeviceNotFound))
}

func TestSyncDispatchesManually(t *testing.T) {
	is, ctx, env := testSetup(t)
	_, err := env.svc.Register(ctx, env.owner.ID, &RegisterDeviceRequest{DeviceID: "PT-0001", PetID: env.pet.ID})
	is.NoErr(err)

	_, err = env.svc.Sync(ctx, env.owner.ID, "PT-0001")
	is.NoErr(err)
	is.Equal(env.dispatcher.dispatched, []configsync.Trigger{configsync.TriggerManual})

	env.dispatcher.dispatchErr = pkgmqtt.ErrNotConnected
	_, err = env.svc.Sync(ctx, env.owner.ID, "PT-0001")
	is.Equal(appErrors.CodeOf(err), appErrors.CodeUnavailable)

	env.dispatcher.dispatchErr = domainUser.ErrPhoneMissing
	_, err = env.svc.Sync(ctx, env.owner.ID, "PT-0001")
	is.Equal(appErrors.CodeOf(err), appErrors.CodeUnprocessable)
}

func TestResetConfigDelegates(t *testing.T) {
	is, ctx, env := testSetup(t)
	is.NoErr(env.svc.ResetConfig(ctx, "PT-0001"))
	is.Equal(env.dispatcher.reset, []string{"PT-0001"})
}
