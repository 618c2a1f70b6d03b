// Package auth exposes token minting for known users. Real authentication
// lives in the external identity service; this endpoint only signs tokens
// for development and integration flows.
package auth

import (
	"github.com/gofiber/fiber/v2"

	authsvc "github.com/cashnoteio/cashnote/pkg/service/auth"
	"github.com/cashnoteio/cashnote/webapi/common"
)

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

// TokenResponse carries the signed bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Routes registers the auth endpoints.
func Routes(app *fiber.App, authSvc *authsvc.Service) {
	app.Post("/auth/token", Token(authSvc))
}

// Token returns the handler for POST /auth/token.
func Token(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TokenRequest](c)
		if input == nil {
			return err
		}
		token, err := authSvc.GenerateToken(c.UserContext(), input.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to issue token", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Token issued", TokenResponse{Token: token})
	}
}
