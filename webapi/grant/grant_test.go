package grant_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cashnoteio/cashnote/app"
	infraeventbus "github.com/cashnoteio/cashnote/infra/eventbus"
	"github.com/cashnoteio/cashnote/infra/provider/mockcompliance"
	"github.com/cashnoteio/cashnote/internal/fixtures/mocks"
	"github.com/cashnoteio/cashnote/pkg/config"
	domainnote "github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
)

const testSecret = "grant-test-secret"

type fixture struct {
	app       *fiber.App
	uow       *mocks.MockUnitOfWork
	grantRepo *mocks.MockGrantRepository
	userRepo  *mocks.MockUserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		uow:       mocks.NewMockUnitOfWork(t),
		grantRepo: mocks.NewMockGrantRepository(t),
		userRepo:  mocks.NewMockUserRepository(t),
	}
	f.uow.On("GrantRepository").Return(f.grantRepo, nil).Maybe()
	f.uow.On("UserRepository").Return(f.userRepo, nil).Maybe()

	cfg := &config.App{
		Jwt:       config.Jwt{Secret: testSecret, Expiry: time.Hour},
		RateLimit: config.RateLimit{MaxRequests: 1000, Window: time.Minute},
	}
	f.app = app.New(config.Deps{
		Uow:        f.uow,
		Compliance: mockcompliance.New(),
		EventBus:   infraeventbus.NewWithMemory(logger),
		Logger:     logger,
		Config:     cfg,
	})
	return f
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = userID.String()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *fixture) request(t *testing.T, method, target, auth string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestCreateGrant_Created(t *testing.T) {
	f := newFixture(t)
	grantor, grantee := uuid.New(), uuid.New()

	f.userRepo.On("Get", grantee).Return(&user.User{ID: grantee}, nil)
	f.grantRepo.On("Create", mock.AnythingOfType("*note.ProxyGrant")).Return(nil)

	resp := f.request(t, http.MethodPost, "/grants", bearer(t, grantor), map[string]any{
		"granteeId":         grantee.String(),
		"authorizationCode": "AUTH-123456",
		"proxyType":         "agent",
		"ceilingAmount":     100,
		"expiresAt":         time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	payload := decode(t, resp)
	data := payload["data"].(map[string]any)
	assert.Equal(t, grantor.String(), data["grantorId"])
	assert.Equal(t, grantee.String(), data["granteeId"])
	assert.Equal(t, "agent", data["proxyType"])
}

func TestCreateGrant_InvalidProxyType(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodPost, "/grants", bearer(t, uuid.New()), map[string]any{
		"granteeId":         uuid.New().String(),
		"authorizationCode": "AUTH-123456",
		"proxyType":         "courier",
		"expiresAt":         time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRevokeGrant_OK(t *testing.T) {
	f := newFixture(t)
	grantor := uuid.New()
	g := domainnote.NewProxyGrant(grantor, uuid.New(),
		"AUTH-123456", domainnote.ProxyAgent, 0, time.Now().Add(time.Hour))

	f.grantRepo.On("Get", g.ID).Return(g, nil)
	f.grantRepo.On("Revoke", g.ID).Return(nil)

	resp := f.request(t, http.MethodPost, "/grants/"+g.ID.String()+"/revoke", bearer(t, grantor), nil)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRevokeGrant_ForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	g := domainnote.NewProxyGrant(uuid.New(), uuid.New(),
		"AUTH-123456", domainnote.ProxyAgent, 0, time.Now().Add(time.Hour))

	f.grantRepo.On("Get", g.ID).Return(g, nil)

	resp := f.request(t, http.MethodPost, "/grants/"+g.ID.String()+"/revoke", bearer(t, uuid.New()), nil)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
