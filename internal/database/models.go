package database

import (
	"time"
)

// User mirrors a confirmed Cognito identity into the shared users table.
// The main backend reads and writes the same table; this service only ever
// creates rows or touches the mutable profile fields.
type User struct {
	CognitoSub     string    `json:"cognito_sub" gorm:"column:cognito_sub;primaryKey"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Name           *string   `json:"name"`
	Username       *string   `json:"username"`
	PhoneNumber    *string   `json:"phone_number"`
	RestaurantName *string   `json:"restaurant_name"`
	Role           string    `json:"role" gorm:"default:'RestaurantOwners'"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) TableName() string {
	return "users"
}
