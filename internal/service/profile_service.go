package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/streamly/portal/internal/adapter/idp"
	"github.com/streamly/portal/internal/domain"
	"github.com/streamly/portal/internal/repository"
)

// IdentityGateway is the subset of the admin client the reconciliation engine
// depends on.
type IdentityGateway interface {
	FetchUserByID(ctx context.Context, userID string) (*idp.IdPUser, error)
	PushAttributes(ctx context.Context, nodeID string, standard, custom map[string]any) error
}

// ProfileService reconciles profile projections across cookies, the cache
// tier, the relational tier, and the identity provider, and fans writes out
// across them.
type ProfileService struct {
	cache    repository.ProfileCache
	store    repository.ProfileStore
	identity IdentityGateway
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProfileService wires the reconciliation engine.
func NewProfileService(cache repository.ProfileCache, store repository.ProfileStore, identity IdentityGateway, logger *zap.Logger) *ProfileService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if logger == nil {
		logger = zap.L()
	}
	return &ProfileService{
		cache:    cache,
		store:    store,
		identity: identity,
		validate: v,
		logger:   logger,
	}
}

// Reconcile merges the stored projections of a user's profile into one
// current view. Both storage tiers are fetched concurrently; a failed lookup
// degrades to an empty projection instead of failing the read. Precedence,
// lowest first: cookies, relational row, cache record. The cache is the most
// recently written tier on the write path, so it wins; cookies can be stale
// after another device updates the profile, so durable storage overrides them.
func (s *ProfileService) Reconcile(ctx context.Context, userID string, cookies domain.CookieProjection) domain.Profile {
	var cached, stored *domain.Profile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.cache.Get(gctx, userID)
		if err != nil {
			s.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		cached = p
		return nil
	})
	g.Go(func() error {
		p, err := s.store.Get(gctx, userID)
		if err != nil {
			s.logger.Warn("profile store read failed", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		stored = p
		return nil
	})
	_ = g.Wait()

	merged := cookies.Profile()
	if stored != nil {
		merged = merged.Merge(*stored)
	}
	if cached != nil {
		merged = merged.Merge(*cached)
	}
	merged.UserID = userID
	return merged
}

// Update validates a submission, pushes the merged attribute set to the
// identity provider, and writes through to the local tiers. The provider push
// is authoritative: its failure aborts the operation before any local write.
// Local write failures after a successful push are logged and swallowed; the
// tiers self-heal on the next read-path reconciliation.
func (s *ProfileService) Update(ctx context.Context, userID string, submission domain.ProfileSubmission) (domain.Profile, error) {
	submission.Trim()
	if err := s.validateSubmission(submission); err != nil {
		return domain.Profile{}, err
	}

	user, err := s.identity.FetchUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if user == nil {
		return domain.Profile{}, domain.ErrUserNotFound
	}

	standard, custom := mergeAttributes(user, submission)
	if err := s.identity.PushAttributes(ctx, user.ID, standard, custom); err != nil {
		return domain.Profile{}, err
	}

	now := time.Now().UTC()
	merged := domain.Profile{UserID: userID}

	existing, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("profile cache read failed during update", zap.String("user_id", userID), zap.Error(err))
	} else if existing != nil {
		merged = *existing
	}

	merged = merged.Merge(submission.Profile(userID))
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = now
	}
	merged.UpdatedAt = now

	if err := s.cache.Set(ctx, merged); err != nil {
		s.logger.Error("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	if err := s.store.Upsert(ctx, merged); err != nil {
		s.logger.Error("profile store write failed", zap.String("user_id", userID), zap.Error(err))
	}

	return merged, nil
}

func (s *ProfileService) validateSubmission(submission domain.ProfileSubmission) error {
	err := s.validate.Struct(submission)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate submission: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldErrorMessage(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a phone number in E.164 format"
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// mergeAttributes overlays the submitted fields onto the provider's existing
// attribute buckets. Unset submissions keep the provider value rather than
// erasing it, and email is provider-owned and never pushed through this path.
func mergeAttributes(user *idp.IdPUser, submission domain.ProfileSubmission) (standard, custom map[string]any) {
	standard = cloneAttrs(user.StandardAttributes)
	custom = cloneAttrs(user.CustomAttributes)

	setAttr(standard, "given_name", submission.Firstname)
	setAttr(standard, "family_name", submission.Lastname)
	setAttr(standard, "website", submission.URL)

	setAttr(custom, "industry", submission.Industry)
	setAttr(custom, "position", submission.Position)
	setAttr(custom, "company", submission.Company)
	setAttr(custom, "phone", submission.Phone)
	setAttr(custom, "about", submission.About)

	return standard, custom
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func setAttr(attrs map[string]any, key, value string) {
	if strings.TrimSpace(value) != "" {
		attrs[key] = value
	}
}
