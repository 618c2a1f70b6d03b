// Package note exposes the ledger's HTTP surface: registration, scan/verify,
// transfer, fraud flagging and transfer history.
package note

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/denomination"
	domainnote "github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/middleware"
	authsvc "github.com/cashnoteio/cashnote/pkg/service/auth"
	fraudsvc "github.com/cashnoteio/cashnote/pkg/service/fraud"
	registrysvc "github.com/cashnoteio/cashnote/pkg/service/registry"
	transfersvc "github.com/cashnoteio/cashnote/pkg/service/transfer"
	"github.com/cashnoteio/cashnote/webapi/common"
)

// Routes registers the note endpoints. Every route requires a verified
// bearer token; scan is read-only but still records the acting user.
//
//   - POST /notes                 : Register a scanned note to the caller.
//   - GET  /notes/scan/:code      : Verify a note by reference code.
//   - POST /notes/:id/transfer    : Transfer ownership to another user.
//   - POST /notes/:id/flag        : Flag the note as stolen.
//   - GET  /notes/:id/transfers   : Paginated transfer history.
func Routes(
	app *fiber.App,
	registrySvc *registrysvc.Service,
	transferSvc *transfersvc.Service,
	fraudSvc *fraudsvc.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	app.Post("/notes", middleware.JwtProtected(cfg.Jwt), Register(registrySvc, authSvc))
	app.Get("/notes/scan/:code", middleware.JwtProtected(cfg.Jwt), Scan(registrySvc, authSvc))
	app.Post("/notes/:id/transfer", middleware.JwtProtected(cfg.Jwt), Transfer(transferSvc, authSvc))
	app.Post("/notes/:id/flag", middleware.JwtProtected(cfg.Jwt), Flag(fraudSvc, authSvc))
	app.Get("/notes/:id/transfers", middleware.JwtProtected(cfg.Jwt), History(transferSvc, authSvc))
}

// Register returns the handler for POST /notes.
func Register(registrySvc *registrysvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[RegisterNoteRequest](c)
		if input == nil {
			return err
		}
		cmd := registrysvc.RegisterNote{
			RequesterID:   userID,
			ReferenceCode: input.ReferenceCode,
			Denomination:  input.Denomination,
			SerialNumber:  input.SerialNumber,
			ScanMethod:    input.ScanMethod,
			NoteType:      domainnote.Type(input.NoteType),
		}
		if input.Foreign != nil {
			cmd.Foreign = &denomination.ForeignSpec{
				Currency:     input.Foreign.Currency,
				Amount:       input.Foreign.Amount,
				ExchangeRate: input.Foreign.ExchangeRate,
			}
		}
		n, err := registrySvc.Register(c.UserContext(), cmd)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to register note", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Note registered", toNoteResponse(n))
	}
}

// Scan returns the handler for GET /notes/scan/:code.
func Scan(registrySvc *registrysvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		result, err := registrySvc.Scan(c.UserContext(), c.Params("code"), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Scan rejected", err)
		}
		n := result.Note
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Note verified", ScanResponse{
			ID:            n.ID.String(),
			ReferenceCode: n.ReferenceCode,
			Status:        string(n.Status),
			CurrentOwner:  n.CurrentOwnerID.String(),
			CanTransfer:   result.CanTransfer,
			TransferCount: n.TransferCount,
			Denomination:  n.Denomination,
			IsForeign:     n.IsForeign,
		})
	}
}

// Transfer returns the handler for POST /notes/:id/transfer.
func Transfer(transferSvc *transfersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		noteID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid note id", err.Error())
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		cmd := transfersvc.Command{
			NoteID:                 noteID,
			RequesterID:            userID,
			ToUserPhone:            input.ToUserPhone,
			Method:                 domainnote.TransferMethod(input.TransferMethod),
			Notes:                  input.Notes,
			IsProxyTransaction:     input.IsProxyTransaction,
			ProxyAuthorizationCode: input.ProxyAuthorizationCode,
			ClientReference:        input.TransferReference,
		}
		if input.ToUserID != "" {
			// Validated as a UUID by the binder already.
			cmd.ToUserID = uuid.MustParse(input.ToUserID)
		}
		tr, err := transferSvc.Transfer(c.UserContext(), cmd)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transfer rejected", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Note transferred", toTransferResponse(tr))
	}
}

// Flag returns the handler for POST /notes/:id/flag.
func Flag(fraudSvc *fraudsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		noteID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid note id", err.Error())
		}
		input, err := common.BindAndValidate[FlagRequest](c)
		if input == nil {
			return err
		}
		n, err := fraudSvc.FlagStolen(c.UserContext(), noteID, userID, input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to flag note", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Note flagged as stolen", FlagResponse{
			ID:        n.ID.String(),
			Status:    string(n.Status),
			IsLocked:  n.IsLocked,
			FlaggedAt: n.FlaggedAt,
		})
	}
}

// History returns the handler for GET /notes/:id/transfers.
func History(transferSvc *transfersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := currentUser(c, authSvc); err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		noteID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid note id", err.Error())
		}
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 20)
		transfers, total, err := transferSvc.History(c.UserContext(), noteID, page, limit)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transfers", err)
		}
		resp := HistoryResponse{
			Transfers: make([]TransferResponse, 0, len(transfers)),
			Total:     total,
			Page:      page,
			Limit:     limit,
		}
		for _, t := range transfers {
			resp.Transfers = append(resp.Transfers, toTransferResponse(t))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer history", resp)
	}
}

func currentUser(c *fiber.Ctx, authSvc *authsvc.Service) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, user.ErrUnauthorized
	}
	return authSvc.GetCurrentUserID(token)
}
