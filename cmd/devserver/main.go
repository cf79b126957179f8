// Local trigger harness: runs the same PostConfirmation handler behind a
// plain HTTP endpoint so the sync path can be exercised against a local
// database without deploying the Lambda.
package main

import (
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"facturapos/internal/config"
	"facturapos/internal/database"
	"facturapos/internal/deadletter"
	"facturapos/internal/handler"
	"facturapos/internal/platform/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	// No archive or mailer locally; failures just land in the log.
	reporter := deadletter.NewReporter(nil, nil, "", "")
	pc := handler.NewPostConfirmation(user.NewService(user.NewStore(db)), reporter)

	app := fiber.New()

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(healthcheck.New())

	app.Post("/trigger/post-confirmation", func(c *fiber.Ctx) error {
		var event events.CognitoEventUserPoolsPostConfirmation
		if err := c.BodyParser(&event); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		out, err := pc.Handle(c.UserContext(), event)
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.JSON(out)
	})

	log.Fatal(app.Listen(fmt.Sprintf(":%d", cfg.DevServerPort)))
}
