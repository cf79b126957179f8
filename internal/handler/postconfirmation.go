package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2/log"

	"facturapos/internal/deadletter"
	"facturapos/internal/platform/user"
)

// Cognito fires PostConfirmation for both signup and forgot-password
// confirmations; only the signup one creates a user.
const triggerConfirmSignup = "PostConfirmation_ConfirmSignUp"

type signupSyncer interface {
	SyncSignup(ctx context.Context, signup user.Signup) (user.SyncAction, error)
}

type failureReporter interface {
	Report(ctx context.Context, env deadletter.Envelope)
}

// PostConfirmation mirrors a confirmed Cognito signup into the users table.
// It always returns the incoming event: a failure here must never block the
// caller's signup flow, so every error path logs, optionally dead-letters,
// and reports success to Cognito.
type PostConfirmation struct {
	users    signupSyncer
	reporter failureReporter
	validate *validator.Validate
}

func NewPostConfirmation(users signupSyncer, reporter failureReporter) *PostConfirmation {
	return &PostConfirmation{
		users:    users,
		reporter: reporter,
		validate: validator.New(),
	}
}

func (h *PostConfirmation) Handle(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	if event.TriggerSource != triggerConfirmSignup {
		log.Infof("ignoring trigger source %s", event.TriggerSource)
		return event, nil
	}

	signup := SignupFromEvent(event)

	if err := h.validate.Struct(signup); err != nil {
		log.Errorf("malformed post-confirmation event for user %q: %v", event.UserName, err)
		return event, nil
	}

	action, err := h.users.SyncSignup(ctx, signup)
	if err != nil {
		log.Errorf("failed to sync user %s: %v", signup.CognitoSub, err)
		if h.reporter != nil {
			h.reporter.Report(ctx, deadletter.NewEnvelope(signup.CognitoSub, err.Error(), event))
		}
		return event, nil
	}

	log.Infof("user %s synced (%s)", signup.CognitoSub, action)
	return event, nil
}

// SignupFromEvent extracts the identity attributes the sync path cares about.
// Also used by the dead-letter replay command.
func SignupFromEvent(event events.CognitoEventUserPoolsPostConfirmation) user.Signup {
	attrs := event.Request.UserAttributes
	return user.Signup{
		CognitoSub:     attrs["sub"],
		Email:          attrs["email"],
		Name:           attrs["name"],
		Username:       event.UserName,
		PhoneNumber:    attrs["phone_number"],
		RestaurantName: attrs["custom:restaurantName"],
	}
}
