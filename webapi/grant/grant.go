// Package grant exposes the proxy grant endpoints: a note owner delegates
// transfer authority to another user and can withdraw it again.
package grant

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cashnoteio/cashnote/pkg/config"
	domainnote "github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/middleware"
	authsvc "github.com/cashnoteio/cashnote/pkg/service/auth"
	transfersvc "github.com/cashnoteio/cashnote/pkg/service/transfer"
	"github.com/cashnoteio/cashnote/webapi/common"
)

// CreateGrantRequest is the request body for issuing a proxy grant.
type CreateGrantRequest struct {
	GranteeID         string    `json:"granteeId" validate:"required,uuid"`
	AuthorizationCode string    `json:"authorizationCode" validate:"required,min=6,max=64"`
	ProxyType         string    `json:"proxyType" validate:"required,oneof=guardian agent merchant"`
	CeilingAmount     int64     `json:"ceilingAmount" validate:"gte=0"`
	ExpiresAt         time.Time `json:"expiresAt" validate:"required"`
}

// GrantResponse is the response body for an issued proxy grant.
type GrantResponse struct {
	ID            string    `json:"id"`
	GrantorID     string    `json:"grantorId"`
	GranteeID     string    `json:"granteeId"`
	ProxyType     string    `json:"proxyType"`
	CeilingAmount int64     `json:"ceilingAmount"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Routes registers the proxy grant endpoints.
//
//   - POST /grants            : Issue a proxy grant from the caller.
//   - POST /grants/:id/revoke : Revoke a grant the caller issued.
func Routes(app *fiber.App, transferSvc *transfersvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Post("/grants", middleware.JwtProtected(cfg.Jwt), Create(transferSvc, authSvc))
	app.Post("/grants/:id/revoke", middleware.JwtProtected(cfg.Jwt), Revoke(transferSvc, authSvc))
}

// Create returns the handler for POST /grants.
func Create(transferSvc *transfersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[CreateGrantRequest](c)
		if input == nil {
			return err
		}
		g, err := transferSvc.Grant(c.UserContext(), transfersvc.GrantCommand{
			GrantorID: userID,
			// Validated as a UUID by the binder already.
			GranteeID:         uuid.MustParse(input.GranteeID),
			AuthorizationCode: input.AuthorizationCode,
			ProxyType:         domainnote.ProxyType(input.ProxyType),
			CeilingAmount:     input.CeilingAmount,
			ExpiresAt:         input.ExpiresAt,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to issue grant", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Proxy grant issued", GrantResponse{
			ID:            g.ID.String(),
			GrantorID:     g.GrantorID.String(),
			GranteeID:     g.GranteeID.String(),
			ProxyType:     string(g.ProxyType),
			CeilingAmount: g.CeilingAmount,
			ExpiresAt:     g.ExpiresAt,
			CreatedAt:     g.CreatedAt,
		})
	}
}

// Revoke returns the handler for POST /grants/:id/revoke.
func Revoke(transferSvc *transfersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		grantID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid grant id", err.Error())
		}
		if err := transferSvc.RevokeGrant(c.UserContext(), grantID, userID); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to revoke grant", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Proxy grant revoked", fiber.Map{
			"id": grantID.String(),
		})
	}
}

func currentUser(c *fiber.Ctx, authSvc *authsvc.Service) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, user.ErrUnauthorized
	}
	return authSvc.GetCurrentUserID(token)
}
