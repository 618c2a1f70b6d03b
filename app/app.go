// Package app assembles services, audit subscribers and the Fiber app.
package app

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/domain/events"
	authsvc "github.com/cashnoteio/cashnote/pkg/service/auth"
	fraudsvc "github.com/cashnoteio/cashnote/pkg/service/fraud"
	registrysvc "github.com/cashnoteio/cashnote/pkg/service/registry"
	statssvc "github.com/cashnoteio/cashnote/pkg/service/stats"
	transfersvc "github.com/cashnoteio/cashnote/pkg/service/transfer"
	"github.com/cashnoteio/cashnote/webapi/auth"
	"github.com/cashnoteio/cashnote/webapi/common"
	"github.com/cashnoteio/cashnote/webapi/grant"
	"github.com/cashnoteio/cashnote/webapi/note"
	"github.com/cashnoteio/cashnote/webapi/stats"
)

// New builds all services, registers the audit subscribers, and returns the
// Fiber app with routes mounted.
func New(deps config.Deps) *fiber.App {
	registrySvc := registrysvc.NewService(deps)
	transferSvc := transfersvc.NewService(deps)
	fraudSvc := fraudsvc.NewService(deps)
	statsSvc := statssvc.NewService(deps)
	authSvc := authsvc.NewService(deps)

	registerAuditSubscribers(deps)

	app := fiber.New(fiber.Config{
		AppName: "cashnote",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return common.ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(limiter.New(limiter.Config{
		Max:        deps.Config.RateLimit.MaxRequests,
		Expiration: deps.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ErrorResponseJSON(c,
				fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	note.Routes(app, registrySvc, transferSvc, fraudSvc, authSvc, deps.Config)
	grant.Routes(app, transferSvc, authSvc, deps.Config)
	stats.Routes(app, statsSvc, authSvc, deps.Config)
	auth.Routes(app, authSvc)

	return app
}

// registerAuditSubscribers attaches the fire-and-forget audit log to every
// lifecycle event. Subscriber failures stay inside the bus.
func registerAuditSubscribers(deps config.Deps) {
	logger := deps.Logger.With("component", "audit")
	deps.EventBus.Register("NoteRegistered", func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(events.NoteRegistered); ok {
			logger.Info("note registered",
				"noteID", ev.NoteID, "referenceCode", ev.ReferenceCode,
				"ownerID", ev.OwnerID, "denomination", ev.Denomination,
				"isForeign", ev.IsForeign)
		}
		return nil
	})
	deps.EventBus.Register("NoteScanned", func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(events.NoteScanned); ok {
			logger.Info("note scanned",
				"noteID", ev.NoteID, "actorID", ev.ActorID, "outcome", ev.Outcome)
		}
		return nil
	})
	deps.EventBus.Register("NoteTransferred", func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(events.NoteTransferred); ok {
			logger.Info("note transferred",
				"noteID", ev.NoteID, "transferReference", ev.TransferReference,
				"fromUserID", ev.FromUserID, "toUserID", ev.ToUserID,
				"amount", ev.Amount, "proxy", ev.Proxy)
		}
		return nil
	})
	deps.EventBus.Register("NoteFlagged", func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(events.NoteFlagged); ok {
			logger.Warn("note flagged stolen",
				"noteID", ev.NoteID, "reporterID", ev.ReporterID, "reason", ev.Reason)
		}
		return nil
	})
}
