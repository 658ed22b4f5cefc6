package auth_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/auth"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

var _ = Describe("AuthMiddleware", func() {
	var (
		app    *fiber.App
		tokens *auth.TokenManager
	)

	BeforeEach(func() {
		tokens = auth.NewTokenManager(secret, 15)
		app = fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				domainErr := apperrors.ToDomainError(err)
				return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
			},
		})
		app.Get("/whoami", auth.NewAuthMiddleware(tokens).Handle, auth.RequireOperator(), func(c *fiber.Ctx) error {
			actor, ok := auth.ActorFromContext(c)
			if !ok {
				return fiber.ErrInternalServerError
			}
			return c.JSON(actor)
		})
	})

	request := func(header string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("exposes the operator as an actor", func() {
		token, _, err := tokens.GenerateToken("ops", "99", true)
		Expect(err).NotTo(HaveOccurred())

		resp := request("Bearer " + token)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("rejects missing and malformed headers", func() {
		Expect(request("").StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(request("Basic abc").StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(request("Bearer not-a-token").StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("rejects tokens without a platform identity", func() {
		token, _, err := tokens.GenerateToken("ops", "", true)
		Expect(err).NotTo(HaveOccurred())

		Expect(request("Bearer " + token).StatusCode).To(Equal(http.StatusUnauthorized))
	})
})
