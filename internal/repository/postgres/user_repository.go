package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// UserRepository reads identity and role from the profile subsystem's table.
type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetRole(ctx context.Context, id string) (models.Role, error)
	ListIDsByRole(ctx context.Context, role models.Role) ([]string, error)
	// GetMany loads a set of users keyed by id; missing ids are simply
	// absent from the result.
	GetMany(ctx context.Context, ids []string) (map[string]models.User, error)
}

type userRepository struct {
	db *gorm.DB
	l  logger.Logger
}

func NewUserRepository(db *gorm.DB, l logger.Logger) UserRepository {
	return &userRepository{db: db, l: l}
}

func (r *userRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		r.l.Error("userRepository.Get", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetRole(ctx context.Context, id string) (models.Role, error) {
	user, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (r *userRepository) ListIDsByRole(ctx context.Context, role models.Role) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Pluck("id", &ids).Error; err != nil {
		r.l.Error("userRepository.ListIDsByRole", "error", err)
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	if len(ids) == 0 {
		return map[string]models.User{}, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		r.l.Error("userRepository.GetMany", "error", err)
		return nil, err
	}

	out := make(map[string]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
