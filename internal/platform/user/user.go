package user

import (
	"context"
	"errors"

	"facturapos/internal/database"
	"facturapos/pkg/utils"
)

var ErrNotFound = errors.New("user not found")

// Signup carries the identity attributes extracted from a confirmed signup.
type Signup struct {
	CognitoSub     string `validate:"required"`
	Email          string `validate:"required,email"`
	Name           string
	Username       string
	PhoneNumber    string
	RestaurantName string
}

type SyncAction string

const (
	ActionCreated   SyncAction = "created"
	ActionUpdated   SyncAction = "updated"
	ActionUnchanged SyncAction = "unchanged"
)

// Store is the persistence surface the sync logic needs from the users table.
type Store interface {
	FindByCognitoSub(ctx context.Context, sub string) (*database.User, error)
	Create(ctx context.Context, u *database.User) error
	UpdateFields(ctx context.Context, sub string, fields map[string]any) error
	List(ctx context.Context, limit int) ([]database.User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// SyncSignup ensures exactly one row exists for the signup's cognito sub.
// A missing row is created with the default tenant role; an existing row only
// has its mutable profile fields updated, and only when the incoming value is
// non-empty and differs. Email, cognito sub and role are never rewritten.
func (s *Service) SyncSignup(ctx context.Context, signup Signup) (SyncAction, error) {
	signup.Email = utils.NormalizeEmail(signup.Email)

	existing, err := s.store.FindByCognitoSub(ctx, signup.CognitoSub)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}

		record := database.User{
			CognitoSub:     signup.CognitoSub,
			Email:          signup.Email,
			Name:           utils.StringOrNil(signup.Name),
			Username:       utils.StringOrNil(signup.Username),
			PhoneNumber:    utils.StringOrNil(signup.PhoneNumber),
			RestaurantName: utils.StringOrNil(signup.RestaurantName),
		}
		if err := s.store.Create(ctx, &record); err != nil {
			return "", err
		}
		return ActionCreated, nil
	}

	fields := map[string]any{}
	stage := func(column, incoming string, stored *string) {
		if incoming != "" && incoming != utils.Deref(stored) {
			fields[column] = incoming
		}
	}
	stage("name", signup.Name, existing.Name)
	stage("phone_number", signup.PhoneNumber, existing.PhoneNumber)
	stage("restaurant_name", signup.RestaurantName, existing.RestaurantName)

	if len(fields) == 0 {
		return ActionUnchanged, nil
	}

	if err := s.store.UpdateFields(ctx, signup.CognitoSub, fields); err != nil {
		return "", err
	}
	return ActionUpdated, nil
}

func (s *Service) GetByCognitoSub(ctx context.Context, sub string) (*database.User, error) {
	return s.store.FindByCognitoSub(ctx, sub)
}

func (s *Service) List(ctx context.Context, limit int) ([]database.User, error) {
	return s.store.List(ctx, limit)
}
