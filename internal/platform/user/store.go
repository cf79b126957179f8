package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"facturapos/internal/database"
)

type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByCognitoSub(ctx context.Context, sub string) (*database.User, error) {
	var user database.User
	result := s.db.WithContext(ctx).First(&user, "cognito_sub = ?", sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *GormStore) Create(ctx context.Context, u *database.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormStore) UpdateFields(ctx context.Context, sub string, fields map[string]any) error {
	result := s.db.WithContext(ctx).Model(&database.User{}).
		Where("cognito_sub = ?", sub).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, limit int) ([]database.User, error) {
	var users []database.User
	query := s.db.WithContext(ctx).Order("created_at")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

var _ Store = (*GormStore)(nil)
