// Package api provides the HTTP surface of the RFP workflow service.
package api

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
)

type API struct {
	logger   *slog.Logger
	usecase  *rfp.UseCase
	validate *validator.Validate
}

func New(logger *slog.Logger, usecase *rfp.UseCase) *API {
	return &API{
		logger:   logger,
		usecase:  usecase,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("RFP Flow API")
	})
	app.Get("/health", a.health)

	r := app.Group("/rfps")
	r.Post("/", a.createRFP)
	r.Get("/", a.listRFPs)
	r.Get("/:id", a.getRFP)
	r.Post("/:id/run", a.runPipeline)
	r.Post("/:id/agents/:name", a.runAgent)
	r.Post("/:id/advance", a.advance)
	r.Get("/:id/similar", a.similar)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()
	return app.Listen(":" + strconv.Itoa(port))
}
