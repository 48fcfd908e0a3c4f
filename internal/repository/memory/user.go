package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]models.User)}
}

func (r *UserRepo) CreateUser(_ context.Context, username string, email string, hashedPassword string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return models.User{}, apperrors.ErrUsernameTaken
		}
		if u.Email == email {
			return models.User{}, apperrors.ErrEmailTaken
		}
	}

	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
	}
	r.users[user.ID] = user

	return user, nil
}

func (r *UserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return user, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepo) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *UserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *UserRepo) MarkLogin(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	now := time.Now()
	user.LastLoginAt = &now
	r.users[userID] = user
	return nil
}

func (r *UserRepo) UpdateRoles(_ context.Context, userID uuid.UUID, roles []string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return user, apperrors.ErrUserNotFound
	}

	user.Roles = roles
	r.users[userID] = user
	return user, nil
}

func (r *UserRepo) find(match func(models.User) bool) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}
