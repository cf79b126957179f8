package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gofiber/fiber/v2/log"

	"facturapos/internal/config"
	"facturapos/internal/database"
	"facturapos/internal/deadletter"
	"facturapos/internal/handler"
	"facturapos/internal/mail"
	"facturapos/internal/platform/user"
)

// Built lazily on the first invocation and reused while the execution
// context stays warm. Left nil on setup failure so the next invocation
// retries instead of staying broken for the lifetime of the context.
var pc *handler.PostConfirmation

func setup(ctx context.Context) (*handler.PostConfirmation, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	var archive deadletter.Archive
	if cfg.DeadletterBucket != "" {
		s3Archive, err := deadletter.NewS3Archive(ctx, cfg)
		if err != nil {
			log.Errorf("deadletter archive unavailable: %v", err)
		} else {
			archive = s3Archive
		}
	}

	var mailer mail.Mailer
	if cfg.MailgunAPIKey != "" {
		mailer = mail.NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase)
	}

	reporter := deadletter.NewReporter(archive, mailer, cfg.AlertFrom, cfg.AlertTo)
	service := user.NewService(user.NewStore(db))

	return handler.NewPostConfirmation(service, reporter), nil
}

func handle(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	if pc == nil {
		h, err := setup(ctx)
		if err != nil {
			// Never fail the signup flow over our own wiring.
			log.Errorf("usersync setup failed: %v", err)
			return event, nil
		}
		pc = h
	}

	return pc.Handle(ctx, event)
}

func main() {
	lambda.Start(handle)
}
