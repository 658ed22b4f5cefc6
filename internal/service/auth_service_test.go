package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

var _ = Describe("AuthService", func() {
	var (
		tokens *auth.TokenManager
		svc    *service.AuthService
	)

	BeforeEach(func() {
		hash, err := auth.HashPassword("s3cret")
		Expect(err).NotTo(HaveOccurred())
		tokens = auth.NewTokenManager("jwt-secret", 30)
		svc = service.NewAuthService(config.AuthConfig{
			OperatorUsername:     "ops",
			OperatorPasswordHash: hash,
			OperatorDiscordID:    "99",
			OperatorIsAdmin:      true,
		}, tokens, nil)
	})

	It("issues a token carrying the operator identity", func() {
		token, _, err := svc.LoginOperator(context.Background(), "ops", "s3cret")
		Expect(err).NotTo(HaveOccurred())

		claims, err := tokens.ParseToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.DiscordID).To(Equal("99"))
		Expect(claims.Admin).To(BeTrue())
	})

	It("rejects bad credentials", func() {
		_, _, err := svc.LoginOperator(context.Background(), "ops", "wrong")
		Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeUnauthorized))

		_, _, err = svc.LoginOperator(context.Background(), "someone", "s3cret")
		Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeUnauthorized))
	})

	It("is disabled without an operator account", func() {
		disabled := service.NewAuthService(config.AuthConfig{}, tokens, nil)
		Expect(disabled.Enabled()).To(BeFalse())

		_, _, err := disabled.LoginOperator(context.Background(), "", "")
		var domainErr *apperrors.DomainError
		Expect(errors.As(err, &domainErr)).To(BeTrue())
		Expect(domainErr.Code).To(Equal(apperrors.CodeUnauthorized))
	})
})
