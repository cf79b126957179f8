// Package reconcile compares the Cognito user pool against the users table
// and backfills rows the sync handler missed, e.g. while the database was
// unreachable and events only made it to the dead-letter archive or the logs.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"facturapos/internal/database"
	"facturapos/internal/platform/user"
)

// PoolUser is a confirmed identity as the pool reports it.
type PoolUser struct {
	Sub            string
	Email          string
	Name           string
	Username       string
	PhoneNumber    string
	RestaurantName string
}

type Pool interface {
	Users(ctx context.Context) ([]PoolUser, error)
}

type userDirectory interface {
	GetByCognitoSub(ctx context.Context, sub string) (*database.User, error)
	SyncSignup(ctx context.Context, signup user.Signup) (user.SyncAction, error)
}

type Report struct {
	PoolUsers  int
	Missing    []string
	Backfilled int
}

type Auditor struct {
	pool  Pool
	users userDirectory
}

func NewAuditor(pool Pool, users userDirectory) *Auditor {
	return &Auditor{pool: pool, users: users}
}

// Audit lists every confirmed pool identity and checks it has a users row.
// With backfill enabled, missing identities are synced through the same
// find-or-create path the handler uses.
func (a *Auditor) Audit(ctx context.Context, backfill bool) (Report, error) {
	poolUsers, err := a.pool.Users(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list pool users: %w", err)
	}

	report := Report{PoolUsers: len(poolUsers)}
	for _, pu := range poolUsers {
		_, err := a.users.GetByCognitoSub(ctx, pu.Sub)
		if err == nil {
			continue
		}
		if !errors.Is(err, user.ErrNotFound) {
			return report, fmt.Errorf("failed to look up user %s: %w", pu.Sub, err)
		}

		report.Missing = append(report.Missing, pu.Sub)
		if !backfill {
			continue
		}

		signup := user.Signup{
			CognitoSub:     pu.Sub,
			Email:          pu.Email,
			Name:           pu.Name,
			Username:       pu.Username,
			PhoneNumber:    pu.PhoneNumber,
			RestaurantName: pu.RestaurantName,
		}
		if _, err := a.users.SyncSignup(ctx, signup); err != nil {
			return report, fmt.Errorf("failed to backfill user %s: %w", pu.Sub, err)
		}
		report.Backfilled++
	}

	return report, nil
}
