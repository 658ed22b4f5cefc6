package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

var _ = Describe("SetupService", func() {
	var (
		ctx     context.Context
		gw      *mockGateway
		configs *mockConfigStore
		svc     *service.SetupService
		admin   domain.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		gw = newMockGateway()
		configs = newMockConfigStore()
		svc = service.NewSetupService(service.SetupDependencies{Configs: configs, Gateway: gw})
		admin = domain.Actor{ID: "99", IsAdmin: true}
	})

	It("creates the category and entry channel when nothing exists", func() {
		result, err := svc.Setup(ctx, admin, guildID, service.SetupInput{})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.CategoryCreated).To(BeTrue())
		Expect(result.ChannelCreated).To(BeTrue())

		category := gw.channel(result.Config.CategoryID)
		Expect(category.Name).To(Equal("Tickets"))
		Expect(category.Kind).To(Equal(gateway.KindCategory))
		entry := gw.channel(result.Config.TicketChannelID)
		Expect(entry.Name).To(Equal("create-ticket"))
		Expect(entry.ParentID).To(Equal(category.ID))

		Expect(result.Config.SupportRoleID).To(BeNil())
		Expect(result.Config.LogChannelID).To(BeNil())
		Expect(configs.Get(ctx, guildID).Equal(result.Config)).To(BeTrue())

		posted := gw.messagesTo(entry.ID)
		Expect(posted).To(HaveLen(1))
		Expect(posted[0].Embed.Title).To(Equal("Need help?"))
		Expect(posted[0].Buttons).To(ConsistOf(gateway.Button{
			Label: "Create Ticket", CustomID: service.CustomIDCreateTicket, Style: gateway.ButtonPrimary,
		}))
		Expect(gw.purged).To(ConsistOf(entry.ID))
	})

	It("reuses an existing entry channel and the given category", func() {
		gw.addChannel(gateway.Channel{ID: categoryID, GuildID: guildID, Name: "Support", Kind: gateway.KindCategory})
		gw.addChannel(gateway.Channel{ID: channelID, GuildID: guildID, Name: "create-ticket", Kind: gateway.KindText})

		result, err := svc.Setup(ctx, admin, guildID, service.SetupInput{
			CategoryID:    strPtr(categoryID),
			SupportRoleID: strPtr(supportRoleID),
			LogChannelID:  strPtr(logChannelID),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.CategoryCreated).To(BeFalse())
		Expect(result.ChannelCreated).To(BeFalse())
		Expect(result.Config.TicketChannelID).To(Equal(channelID))
		Expect(result.Config.CategoryID).To(Equal(categoryID))
		Expect(result.Config.SupportRole()).To(Equal(supportRoleID))
		Expect(result.Config.LogChannel()).To(Equal(logChannelID))
	})

	It("replaces the whole config on rerun", func() {
		_, err := svc.Setup(ctx, admin, guildID, service.SetupInput{SupportRoleID: strPtr(supportRoleID)})
		Expect(err).NotTo(HaveOccurred())

		result, err := svc.Setup(ctx, admin, guildID, service.SetupInput{})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.ChannelCreated).To(BeFalse())
		Expect(configs.Get(ctx, guildID).SupportRoleID).To(BeNil())
	})

	It("is admin only", func() {
		_, err := svc.Setup(ctx, domain.Actor{ID: "42"}, guildID, service.SetupInput{})

		Expect(errors.Is(err, apperrors.ErrForbidden)).To(BeTrue())
		Expect(configs.Get(ctx, guildID).Configured()).To(BeFalse())
	})

	It("rejects malformed ids", func() {
		_, err := svc.Setup(ctx, admin, guildID, service.SetupInput{SupportRoleID: strPtr("not-a-role")})

		Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeValidationFailed))
	})

	It("reports a category that does not exist", func() {
		_, err := svc.Setup(ctx, admin, guildID, service.SetupInput{CategoryID: strPtr(categoryID)})

		Expect(errors.Is(err, apperrors.ErrCategoryMissing)).To(BeTrue())
	})

	It("rejects a category id that points at a text channel", func() {
		gw.addChannel(gateway.Channel{ID: channelID, GuildID: guildID, Name: "general", Kind: gateway.KindText})

		_, err := svc.Setup(ctx, admin, guildID, service.SetupInput{CategoryID: strPtr(channelID)})

		Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeValidationFailed))
	})

	It("fails when the entry point cannot be posted", func() {
		gw.sendMessageFn = func(context.Context, string, gateway.Message) error { return gateway.ErrForbidden }

		_, err := svc.Setup(ctx, admin, guildID, service.SetupInput{})

		Expect(errors.Is(err, apperrors.ErrPlatformUnavailable)).To(BeTrue())
		Expect(configs.Get(ctx, guildID).Configured()).To(BeFalse())
	})

	It("reports storage failures", func() {
		configs.setFn = func(context.Context, string, domain.WorkspaceConfig) error {
			return errors.New("disk full")
		}

		_, err := svc.Setup(ctx, admin, guildID, service.SetupInput{})

		Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeInternal))
	})
})
