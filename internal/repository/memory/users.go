package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/model"
	"aptracker/internal/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()
	for _, other := range r.s.users {
		if other.Email == user.Email || other.Username == user.Username {
			return fmt.Errorf("%w: users %s", repository.ErrDuplicate, user.Email)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	defer r.s.rlock(ctx)()
	u, ok := r.s.users[uid]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) find(ctx context.Context, match func(model.User) bool) (*model.User, error) {
	defer r.s.rlock(ctx)()
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.Email == email })
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.Username == username })
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	defer r.s.rlock(ctx)()
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, page, limit), int64(len(out)), nil
}
