// Package deadletter archives signup events the sync path could not persist,
// so they can be inspected and replayed instead of being lost to the logs.
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"facturapos/internal/mail"
)

type Envelope struct {
	ID         string          `json:"id"`
	CognitoSub string          `json:"cognito_sub"`
	Reason     string          `json:"reason"`
	ReceivedAt time.Time       `json:"received_at"`
	Event      json.RawMessage `json:"event"`
}

func NewEnvelope(cognitoSub, reason string, event any) Envelope {
	raw, err := json.Marshal(event)
	if err != nil {
		log.Errorf("deadletter: failed to marshal event for %s: %v", cognitoSub, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		CognitoSub: cognitoSub,
		Reason:     reason,
		ReceivedAt: time.Now().UTC(),
		Event:      raw,
	}
}

// Archive is the durable store behind the reporter. Store returns the key the
// envelope was written under.
type Archive interface {
	Store(ctx context.Context, env Envelope) (string, error)
	Keys(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, key string) (Envelope, error)
	Remove(ctx context.Context, key string) error
}

// Reporter fans a failed event out to the archive and an ops alert mail.
// Both legs are best-effort: a dead-letter failure must never surface to the
// signup flow, so everything here is logged and swallowed.
type Reporter struct {
	archive Archive
	mailer  mail.Mailer
	from    string
	to      string
}

func NewReporter(archive Archive, mailer mail.Mailer, from, to string) *Reporter {
	return &Reporter{archive: archive, mailer: mailer, from: from, to: to}
}

func (r *Reporter) Report(ctx context.Context, env Envelope) {
	key := "(not archived)"
	if r.archive != nil {
		stored, err := r.archive.Store(ctx, env)
		if err != nil {
			log.Errorf("deadletter: failed to archive event for %s: %v", env.CognitoSub, err)
		} else {
			key = stored
		}
	}

	if r.mailer == nil || r.to == "" {
		return
	}

	email := mail.Email{
		Subject: fmt.Sprintf("[facturapos] user sync failed for %s", env.CognitoSub),
		Body: fmt.Sprintf(
			"Syncing a confirmed signup into the users table failed.\n\n"+
				"cognito_sub: %s\nreason: %s\nreceived_at: %s\narchive key: %s\n\n"+
				"Replay with: facturapos deadletter replay\n",
			env.CognitoSub, env.Reason, env.ReceivedAt.Format(time.RFC3339), key),
		From: r.from,
		To:   []string{r.to},
	}
	if err := r.mailer.SendMail(&email); err != nil {
		log.Errorf("deadletter: failed to send alert mail for %s: %v", env.CognitoSub, err)
	}
}
