package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamly/portal/internal/adapter/idp"
	"github.com/streamly/portal/internal/domain"
)

type fakeProfileCache struct {
	profiles map[string]domain.Profile
	getErr   error
	setErr   error
	sets     int
}

func (f *fakeProfileCache) Get(_ context.Context, userID string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProfileCache) Set(_ context.Context, profile domain.Profile) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	if f.profiles == nil {
		f.profiles = map[string]domain.Profile{}
	}
	f.profiles[profile.UserID] = profile
	return nil
}

type fakeProfileStore struct {
	profiles map[string]domain.Profile
	getErr   error
	upserts  int
}

func (f *fakeProfileStore) Get(_ context.Context, userID string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProfileStore) Upsert(_ context.Context, profile domain.Profile) error {
	f.upserts++
	if f.profiles == nil {
		f.profiles = map[string]domain.Profile{}
	}
	f.profiles[profile.UserID] = profile
	return nil
}

type fakeIdentity struct {
	user     *idp.IdPUser
	fetchErr error
	pushErr  error

	pushed         bool
	pushedStandard map[string]any
	pushedCustom   map[string]any
}

func (f *fakeIdentity) FetchUserByID(context.Context, string) (*idp.IdPUser, error) {
	return f.user, f.fetchErr
}

func (f *fakeIdentity) PushAttributes(_ context.Context, _ string, standard, custom map[string]any) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = true
	f.pushedStandard = standard
	f.pushedCustom = custom
	return nil
}

type profileHarness struct {
	cache    *fakeProfileCache
	store    *fakeProfileStore
	identity *fakeIdentity
	svc      *ProfileService
}

func newProfileHarness() *profileHarness {
	h := &profileHarness{
		cache: &fakeProfileCache{},
		store: &fakeProfileStore{},
		identity: &fakeIdentity{
			user: &idp.IdPUser{
				ID:                 "node-1",
				StandardAttributes: map[string]any{"email": "ada@example.com"},
				CustomAttributes:   map[string]any{},
			},
		},
	}
	h.svc = NewProfileService(h.cache, h.store, h.identity, zap.NewNop())
	return h
}

func TestReconcilePrecedence(t *testing.T) {
	h := newProfileHarness()
	h.store.profiles = map[string]domain.Profile{
		"u1": {UserID: "u1", Firstname: "Row", Company: "RowCo"},
	}
	h.cache.profiles = map[string]domain.Profile{
		"u1": {UserID: "u1", Firstname: "Cache"},
	}
	cookies := domain.CookieProjection{Firstname: "Cookie", Email: "cookie@example.com"}

	got := h.svc.Reconcile(context.Background(), "u1", cookies)

	require.Equal(t, "Cache", got.Firstname, "cache tier wins")
	require.Equal(t, "RowCo", got.Company, "row fields survive when cache is silent")
	require.Equal(t, "cookie@example.com", got.Email, "cookie fields survive when storage is silent")
	require.Equal(t, "u1", got.UserID)
}

func TestReconcileEmptyTiers(t *testing.T) {
	h := newProfileHarness()

	got := h.svc.Reconcile(context.Background(), "u1", domain.CookieProjection{})
	require.Equal(t, "u1", got.UserID)
	require.False(t, got.Complete())
}

func TestReconcileTolerantOfTierFailures(t *testing.T) {
	h := newProfileHarness()
	h.cache.getErr = errors.New("redis down")
	h.store.profiles = map[string]domain.Profile{
		"u1": {UserID: "u1", Firstname: "Ada", Lastname: "Lovelace"},
	}

	got := h.svc.Reconcile(context.Background(), "u1", domain.CookieProjection{})
	require.Equal(t, "Ada", got.Firstname)
	require.True(t, got.Complete())
}

func TestUpdateHappyPath(t *testing.T) {
	h := newProfileHarness()
	sub := domain.ProfileSubmission{
		Firstname: " Ada ",
		Lastname:  "Lovelace",
		Phone:     "+442071234567",
		Company:   "Analytical Engines",
		URL:       "https://example.com",
	}

	got, err := h.svc.Update(context.Background(), "u1", sub)
	require.NoError(t, err)
	require.Equal(t, "Ada", got.Firstname)
	require.False(t, got.UpdatedAt.IsZero())
	require.False(t, got.CreatedAt.IsZero())

	require.True(t, h.identity.pushed)
	require.Equal(t, "Ada", h.identity.pushedStandard["given_name"])
	require.Equal(t, "Lovelace", h.identity.pushedStandard["family_name"])
	require.Equal(t, "https://example.com", h.identity.pushedStandard["website"])
	require.Equal(t, "ada@example.com", h.identity.pushedStandard["email"], "provider email kept untouched")
	require.Equal(t, "+442071234567", h.identity.pushedCustom["phone"])
	require.Equal(t, "Analytical Engines", h.identity.pushedCustom["company"])

	require.Equal(t, 1, h.cache.sets)
	require.Equal(t, 1, h.store.upserts)
	require.Equal(t, got, h.cache.profiles["u1"])
	require.Equal(t, got, h.store.profiles["u1"])
}

func TestUpdatePreservesCreatedAtAndUnsubmittedFields(t *testing.T) {
	h := newProfileHarness()

	first, err := h.svc.Update(context.Background(), "u1", domain.ProfileSubmission{
		Firstname: "Ada", Lastname: "Lovelace", About: "bio",
	})
	require.NoError(t, err)

	second, err := h.svc.Update(context.Background(), "u1", domain.ProfileSubmission{
		Firstname: "Ada", Lastname: "King",
	})
	require.NoError(t, err)

	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Equal(t, "King", second.Lastname)
	require.Equal(t, "bio", second.About, "fields absent from the submission survive")
}

func TestUpdateValidationFailureCollectsAllFields(t *testing.T) {
	h := newProfileHarness()
	sub := domain.ProfileSubmission{
		Firstname: "",
		Lastname:  "Lovelace",
		Email:     "not-an-email",
		Phone:     "0712345",
		URL:       "notaurl",
	}

	_, err := h.svc.Update(context.Background(), "u1", sub)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "firstname")
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "phone")
	require.Contains(t, verr.Fields, "url")

	require.False(t, h.identity.pushed, "invalid submissions never reach the provider")
	require.Zero(t, h.cache.sets)
	require.Zero(t, h.store.upserts)
}

func TestUpdateUnknownUser(t *testing.T) {
	h := newProfileHarness()
	h.identity.user = nil

	_, err := h.svc.Update(context.Background(), "u1", domain.ProfileSubmission{
		Firstname: "Ada", Lastname: "Lovelace",
	})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	require.Zero(t, h.cache.sets)
	require.Zero(t, h.store.upserts)
}

func TestUpdatePushFailureLeavesLocalTiersUntouched(t *testing.T) {
	h := newProfileHarness()
	h.identity.pushErr = &domain.UpstreamError{Op: "update user", Detail: "boom"}

	_, err := h.svc.Update(context.Background(), "u1", domain.ProfileSubmission{
		Firstname: "Ada", Lastname: "Lovelace",
	})

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Zero(t, h.cache.sets)
	require.Zero(t, h.store.upserts)
}

func TestUpdateSurvivesLocalWriteFailure(t *testing.T) {
	h := newProfileHarness()
	h.cache.setErr = errors.New("redis down")

	got, err := h.svc.Update(context.Background(), "u1", domain.ProfileSubmission{
		Firstname: "Ada", Lastname: "Lovelace",
	})
	require.NoError(t, err, "local write failures are absorbed after a successful push")
	require.True(t, got.Complete())
	require.Equal(t, 1, h.store.upserts)
}

func TestMergeAttributesSkipsEmptySubmissionFields(t *testing.T) {
	user := &idp.IdPUser{
		ID:                 "node-1",
		StandardAttributes: map[string]any{"given_name": "Ada", "website": "https://old.example.com"},
		CustomAttributes:   map[string]any{"company": "OldCo"},
	}
	standard, custom := mergeAttributes(user, domain.ProfileSubmission{
		Firstname: "Augusta",
		Lastname:  "King",
	})

	require.Equal(t, "Augusta", standard["given_name"])
	require.Equal(t, "King", standard["family_name"])
	require.Equal(t, "https://old.example.com", standard["website"], "unsubmitted fields keep provider values")
	require.Equal(t, "OldCo", custom["company"])
	require.NotContains(t, user.StandardAttributes, "family_name", "provider maps are cloned, not mutated")
}
