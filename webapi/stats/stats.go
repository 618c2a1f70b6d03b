// Package stats exposes the read-only aggregation endpoint.
package stats

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/middleware"
	authsvc "github.com/cashnoteio/cashnote/pkg/service/auth"
	statssvc "github.com/cashnoteio/cashnote/pkg/service/stats"
	"github.com/cashnoteio/cashnote/webapi/common"
)

// Routes registers the statistics endpoint.
//
//   - GET /stats : Aggregated figures for the caller's notes; ?scope=all for
//     system-wide figures.
func Routes(app *fiber.App, statsSvc *statssvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Get("/stats", middleware.JwtProtected(cfg.Jwt), Summary(statsSvc, authSvc))
}

// Summary returns the handler for GET /stats.
func Summary(statsSvc *statssvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", user.ErrUnauthorized)
		}
		userID, err := authSvc.GetCurrentUserID(token)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		ownerID := userID
		if c.Query("scope") == "all" {
			ownerID = uuid.Nil
		}
		summary, err := statsSvc.Summary(c.UserContext(), ownerID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to aggregate statistics", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Statistics", summary)
	}
}
