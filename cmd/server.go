package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/assistant"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/config"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const answerRoute = "/sunbird-assistant/answer"

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve answers over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			logx.Info("🚀 Starting Sunbird VA assistant...")

			container, err := NewContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer container.Cleanup()

			return startServer(cmd.Context(), newApp(container), cfg.Server)
		},
	}
}

func newApp(container *Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Sunbird VA",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(container.Config.Server.Debug),
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  container.Config.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get(answerRoute, answerHandler(container.Assistant))
	app.Get("/health", healthCheckHandler(container))

	app.Use(notFoundHandler)
	return app
}

// ============================================================================
// Handlers
// ============================================================================

// answerHandler serves GET ?q=<question>&session_id=<id> as plain text
func answerHandler(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := kernel.NewRequestID(c.GetRespHeader(fiber.HeaderXRequestID))
		ctx := kernel.WithRequestID(c.UserContext(), requestID)

		answer, err := svc.Ask(ctx, assistant.Query{
			Question:  c.Query("q"),
			SessionID: kernel.NewSessionID(c.Query("session_id")),
		})
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(answer.Text)
	}
}

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		health := fiber.Map{
			"status":  "healthy",
			"service": "sunbird-va",
		}
		for name, err := range container.Ping(ctx) {
			if err != nil {
				health[name] = "unhealthy"
				health[name+"_error"] = err.Error()
				health["status"] = "degraded"
				continue
			}
			health[name] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errx.HTTPErrorResponse{
		Error:     "Route not found",
		Code:      "NOT_FOUND",
		Type:      string(errx.TypeNotFound),
		Status:    fiber.StatusNotFound,
		RequestID: c.GetRespHeader(fiber.HeaderXRequestID),
		Details:   map[string]any{"path": c.Path(), "method": c.Method()},
	})
}

func errorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		}).WithError(err).Error("Request error")

		return errx.WriteFiber(c, err, debug)
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

// startServer listens until ctx is cancelled, then shuts down gracefully
func startServer(ctx context.Context, app *fiber.App, sc config.ServerConfig) error {
	addr := fmt.Sprintf(":%d", sc.Port)

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("🚀 Server listening on %s", addr)
		logx.Infof("💬 Answers: http://localhost%s%s?q=...&session_id=...", addr, answerRoute)
		logx.Infof("💚 Health Check: http://localhost%s/health", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info("🛑 Shutting down gracefully...")
	if err := app.ShutdownWithTimeout(sc.ShutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
		return err
	}
	logx.Info("✅ Server exited successfully")
	return nil
}
