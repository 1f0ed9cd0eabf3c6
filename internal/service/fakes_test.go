package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nuber/nuber/internal/cache"
	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/repository"
)

type fakePlaceStore struct {
	mu      sync.Mutex
	places  map[string]*model.Place
	updates int
	err     error
}

func newFakePlaceStore(places ...*model.Place) *fakePlaceStore {
	s := &fakePlaceStore{places: make(map[string]*model.Place)}
	for _, p := range places {
		cp := *p
		s.places[p.ID] = &cp
	}
	return s
}

func (s *fakePlaceStore) CreatePlace(_ context.Context, place *model.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *place
	s.places[place.ID] = &cp
	return nil
}

func (s *fakePlaceStore) GetPlaceByID(_ context.Context, id string) (*model.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.places[id]
	if !ok {
		return nil, repository.ErrPlaceNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePlaceStore) ListPlacesByUser(_ context.Context, userID string) ([]*model.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Place, 0)
	for _, p := range s.places {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakePlaceStore) UpdatePlace(_ context.Context, id string, patch model.PlacePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[id]
	if !ok {
		return repository.ErrPlaceNotFound
	}
	s.updates++
	applyPatch(p, patch)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakePlaceStore) DeletePlace(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.places[id]; !ok {
		return repository.ErrPlaceNotFound
	}
	delete(s.places, id)
	return nil
}

func (s *fakePlaceStore) get(id string) (*model.Place, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

type fakeUserStore struct {
	users map[string]*model.User
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeVerificationStore struct {
	byID      map[string]*model.Verification
	users     *fakeUserStore
	replaceFn func(v *model.Verification) error
}

func newFakeVerificationStore(users *fakeUserStore) *fakeVerificationStore {
	return &fakeVerificationStore{byID: make(map[string]*model.Verification), users: users}
}

func (s *fakeVerificationStore) ReplaceVerification(_ context.Context, v *model.Verification) error {
	if s.replaceFn != nil {
		if err := s.replaceFn(v); err != nil {
			return err
		}
	}
	for id, old := range s.byID {
		if old.Target == v.Target && old.Payload == v.Payload && !old.Verified {
			delete(s.byID, id)
		}
	}
	cp := *v
	s.byID[v.ID] = &cp
	return nil
}

func (s *fakeVerificationStore) FindVerification(_ context.Context, target model.VerificationTarget, payload, key string) (*model.Verification, error) {
	for _, v := range s.byID {
		if v.Target == target && v.Payload == payload && v.Key == key && !v.Verified {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repository.ErrVerificationNotFound
}

func (s *fakeVerificationStore) CompleteVerification(_ context.Context, verificationID, userID string) error {
	v, ok := s.byID[verificationID]
	if !ok || v.Verified {
		return repository.ErrVerificationNotFound
	}
	v.Verified = true
	if u, ok := s.users.users[userID]; ok {
		u.VerifiedEmail = true
	}
	return nil
}

func (s *fakeVerificationStore) pendingKeys() []string {
	var keys []string
	for _, v := range s.byID {
		if !v.Verified {
			keys = append(keys, v.Key)
		}
	}
	return keys
}

type fakeLimiter struct {
	count int
	err   error
}

func (l *fakeLimiter) CheckVerificationSendLimit(_ context.Context, _ string, limit int, _ time.Duration) (*cache.RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.count++
	return &cache.RateLimitResult{Allowed: l.count <= limit}, nil
}

type sentMail struct {
	user *model.User
	key  string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, user *model.User, key string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{user: user, key: key})
	return nil
}

var errBoom = errors.New("boom")

// applyPatch copies the non-nil fields of patch onto p, as the SQL update does.
func applyPatch(p *model.Place, patch model.PlacePatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Lat != nil {
		p.Lat = *patch.Lat
	}
	if patch.Lng != nil {
		p.Lng = *patch.Lng
	}
	if patch.IsFav != nil {
		p.IsFav = *patch.IsFav
	}
}
