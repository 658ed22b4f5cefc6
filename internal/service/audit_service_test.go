package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
)

var _ = Describe("AuditService", func() {
	var (
		ctx        context.Context
		gw         *mockGateway
		configs    *mockConfigStore
		history    repository.TicketEventRepository
		dispatcher events.Dispatcher
	)

	const threadID = "600000000000000006"

	BeforeEach(func() {
		ctx = context.Background()
		gw = newMockGateway()
		configs = newMockConfigStore()
		configs.configs[guildID] = domain.WorkspaceConfig{
			TicketChannelID: channelID,
			CategoryID:      categoryID,
			LogChannelID:    strPtr(logChannelID),
		}
		history = repository.NewMemoryTicketEventRepository()
		dispatcher = events.NewInMemoryDispatcher(nil)
		service.NewAuditService(service.AuditDependencies{
			Dispatcher:  dispatcher,
			Configs:     configs,
			Gateway:     gw,
			HistoryRepo: history,
		}).RegisterHandlers()
	})

	publish := func(eventType events.EventType, payload any) {
		Expect(dispatcher.Publish(ctx, events.Event{
			ID:        "evt-1",
			Type:      eventType,
			GuildID:   guildID,
			TicketID:  threadID,
			ActorID:   "99",
			Timestamp: fixedNow,
			Payload:   payload,
		})).To(Succeed())
	}

	It("formats deletions with the deleting user", func() {
		publish(events.EventTicketDeleted, events.TicketStateChangedPayload{
			RequesterID: "42",
			OldState:    domain.TicketStateOpen,
			NewState:    domain.TicketStateDeleted,
		})

		logged := gw.messagesTo(logChannelID)
		Expect(logged).To(HaveLen(1))
		Expect(logged[0].Embed.Title).To(Equal("Ticket Deleted"))
		Expect(logged[0].Embed.Description).To(Equal(
			"**Thread:** <#" + threadID + ">\n**User:** <@42>\n**Deleted by:** <@99>"))
		Expect(logged[0].Embed.Color).To(Equal(service.ColorRed))
		Expect(logged[0].Embed.Timestamp).To(Equal(fixedNow))
	})

	It("formats member additions", func() {
		publish(events.EventTicketMemberAdded, events.TicketMemberAddedPayload{UserID: "88"})

		logged := gw.messagesTo(logChannelID)
		Expect(logged).To(HaveLen(1))
		Expect(logged[0].Embed.Title).To(Equal("User Added to Ticket"))
		Expect(logged[0].Embed.Description).To(Equal(
			"**Thread:** <#" + threadID + ">\n**Added by:** <@99>\n**User added:** <@88>"))
	})

	It("records history with the payload as details", func() {
		publish(events.EventTicketReopened, events.TicketReopenedPayload{RequesterID: "42", Reason: "again"})

		entries, err := history.ListByTicket(ctx, threadID, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Type).To(Equal(domain.TicketEventReopened))
		Expect(entries[0].ActorID).To(Equal("99"))
		Expect(entries[0].Details).To(HaveKeyWithValue("reason", "again"))
		Expect(entries[0].CreatedAt).To(BeTemporally("==", fixedNow))
	})

	It("skips the log channel when none is configured", func() {
		cfg := configs.configs[guildID]
		cfg.LogChannelID = nil
		configs.configs[guildID] = cfg

		publish(events.EventTicketClosed, events.TicketStateChangedPayload{RequesterID: "42"})

		Expect(gw.messagesTo(logChannelID)).To(BeEmpty())
		entries, err := history.ListByTicket(ctx, threadID, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("never fails the publisher when the log channel is unreachable", func() {
		gw.sendMessageFn = func(context.Context, string, gateway.Message) error {
			return errors.New("log channel deleted")
		}

		publish(events.EventTicketCreated, events.TicketCreatedPayload{RequesterID: "42", Reason: "x"})

		entries, err := history.ListByTicket(ctx, threadID, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("stamps entries with the event time", func() {
		later := fixedNow.Add(time.Minute)
		Expect(dispatcher.Publish(ctx, events.Event{
			ID: "evt-2", Type: events.EventTicketClosed, GuildID: guildID, TicketID: threadID,
			Timestamp: later, Payload: events.TicketStateChangedPayload{RequesterID: "42"},
		})).To(Succeed())

		Expect(gw.messagesTo(logChannelID)[0].Embed.Timestamp).To(Equal(later))
	})
})
