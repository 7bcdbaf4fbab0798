// Package profile manages user profiles keyed by email.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lazycare/pkg/types"
)

const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no profile matches an email or id.
var ErrNotFound = errors.New("user not found")

// Store persists profiles. Email is the primary key; ids are a secondary index.
type Store interface {
	Get(ctx context.Context, email string) (types.UserProfile, error)
	GetByID(ctx context.Context, id string) (types.UserProfile, error)
	// Put creates or replaces the profile stored under p.Email.
	Put(ctx context.Context, p types.UserProfile) error
	Delete(ctx context.Context, email string) error
	Close() error
}

// Options selects a store implementation.
type Options struct {
	Backend  string // memory|redis|off
	RedisURL string
	Prefix   string
}

// Open returns the configured store, or nil when profiles are disabled.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "off":
		return nil, nil
	case "redis":
		rs, err := NewRedisStore(ctx, opts.RedisURL, opts.Prefix)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown users backend %q", opts.Backend)
	}
}

// Service applies validation and update rules on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Upsert creates the profile for req.Email, or updates the supplied fields
// when it already exists. created reports which of the two happened.
func (s *Service) Upsert(ctx context.Context, req types.ProfileRequest) (p types.UserProfile, created bool, err error) {
	if req.Username == nil || strings.TrimSpace(*req.Username) == "" || req.Email == nil || strings.TrimSpace(*req.Email) == "" {
		return p, false, invalid("Missing required fields: username and email are required.")
	}
	email := strings.TrimSpace(*req.Email)
	if !validEmail(email) {
		return p, false, invalid("Invalid email format.")
	}
	p, err = s.store.Get(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		now := s.stamp()
		p = types.UserProfile{ID: uuid.NewString(), Email: email, CreatedAt: now}
		created = true
	case err != nil:
		return p, false, err
	}
	if err := s.apply(&p, req); err != nil {
		return types.UserProfile{}, false, err
	}
	if err := s.store.Put(ctx, p); err != nil {
		return types.UserProfile{}, false, err
	}
	return p, created, nil
}

func (s *Service) Get(ctx context.Context, email string) (types.UserProfile, error) {
	return s.store.Get(ctx, email)
}

func (s *Service) GetByID(ctx context.Context, id string) (types.UserProfile, error) {
	return s.store.GetByID(ctx, id)
}

// Update changes only the fields present in req. The email cannot change.
func (s *Service) Update(ctx context.Context, email string, req types.ProfileRequest) (types.UserProfile, error) {
	p, err := s.store.Get(ctx, email)
	if err != nil {
		return p, err
	}
	return s.update(ctx, p, req)
}

// UpdateByID is Update addressed by profile id.
func (s *Service) UpdateByID(ctx context.Context, id string, req types.ProfileRequest) (types.UserProfile, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return p, err
	}
	return s.update(ctx, p, req)
}

func (s *Service) update(ctx context.Context, p types.UserProfile, req types.ProfileRequest) (types.UserProfile, error) {
	if req.Email != nil && strings.TrimSpace(*req.Email) != p.Email {
		return types.UserProfile{}, invalid("email cannot be changed")
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return types.UserProfile{}, invalid("username must not be empty")
	}
	if err := s.apply(&p, req); err != nil {
		return types.UserProfile{}, err
	}
	if err := s.store.Put(ctx, p); err != nil {
		return types.UserProfile{}, err
	}
	return p, nil
}

// ClearDetails removes birthday, gender and weight but keeps the account.
func (s *Service) ClearDetails(ctx context.Context, email string) (types.UserProfile, error) {
	p, err := s.store.Get(ctx, email)
	if err != nil {
		return p, err
	}
	p.Birthday, p.Gender, p.Weight = "", "", ""
	p.UpdatedAt = s.stamp()
	if err := s.store.Put(ctx, p); err != nil {
		return types.UserProfile{}, err
	}
	return p, nil
}

// Delete removes the profile with id and returns what was removed.
func (s *Service) Delete(ctx context.Context, id string) (types.UserProfile, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return p, err
	}
	if err := s.store.Delete(ctx, p.Email); err != nil {
		return types.UserProfile{}, err
	}
	return p, nil
}

func (s *Service) Close() error { return s.store.Close() }

func (s *Service) apply(p *types.UserProfile, req types.ProfileRequest) error {
	if req.Username != nil {
		p.Username = strings.TrimSpace(*req.Username)
	}
	if req.Birthday != nil {
		b := strings.TrimSpace(*req.Birthday)
		if b != "" {
			if err := checkBirthday(b, s.now()); err != nil {
				return err
			}
		}
		p.Birthday = b
	}
	if req.Gender != nil {
		p.Gender = strings.TrimSpace(*req.Gender)
	}
	if req.Weight != nil {
		w, err := parseWeight(req.Weight)
		if err != nil {
			return err
		}
		p.Weight = w
	}
	if req.WeightUnit != nil {
		p.WeightUnit = strings.TrimSpace(*req.WeightUnit)
	}
	p.UpdatedAt = s.stamp()
	return nil
}

func (s *Service) stamp() string {
	return s.now().UTC().Format(timestampLayout)
}
