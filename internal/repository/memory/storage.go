package memory

import (
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/repository"
)

type Storage struct {
	users  *UserRepo
	tokens *RefreshTokenRepo
}

func NewStorage() *Storage {
	return &Storage{
		users:  NewUserRepo(),
		tokens: NewRefreshTokenRepo(),
	}
}

func (s *Storage) User() repository.UserRepo {
	return s.users
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return s.tokens
}
