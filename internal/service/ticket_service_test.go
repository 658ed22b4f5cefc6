package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/access"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

const (
	guildID       = "100000000000000001"
	categoryID    = "200000000000000002"
	channelID     = "300000000000000003"
	supportRoleID = "400000000000000004"
	logChannelID  = "500000000000000005"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var _ = Describe("TicketService", func() {
	var (
		ctx        context.Context
		gw         *mockGateway
		configs    *mockConfigStore
		tickets    repository.TicketRepository
		history    repository.TicketEventRepository
		dispatcher events.Dispatcher
		policy     access.Policy
		svc        *service.TicketService
		requester  domain.Actor
		stranger   domain.Actor
		supporter  domain.Actor
		admin      domain.Actor
	)

	build := func() {
		svc = service.NewTicketService(service.TicketDependencies{
			TicketRepo:  tickets,
			HistoryRepo: history,
			Configs:     configs,
			Gateway:     gw,
			Access:      access.NewResolver(policy),
			Dispatcher:  dispatcher,
			Clock:       func() time.Time { return fixedNow },
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		gw = newMockGateway()
		gw.addChannel(gateway.Channel{ID: categoryID, GuildID: guildID, Name: "Tickets", Kind: gateway.KindCategory})
		gw.addChannel(gateway.Channel{ID: channelID, GuildID: guildID, ParentID: categoryID, Name: "create-ticket", Kind: gateway.KindText})
		gw.addChannel(gateway.Channel{ID: logChannelID, GuildID: guildID, Name: "ticket-logs", Kind: gateway.KindText})

		configs = newMockConfigStore()
		configs.configs[guildID] = domain.WorkspaceConfig{
			TicketChannelID: channelID,
			CategoryID:      categoryID,
			SupportRoleID:   strPtr(supportRoleID),
			LogChannelID:    strPtr(logChannelID),
		}

		tickets = repository.NewMemoryTicketRepository()
		history = repository.NewMemoryTicketEventRepository()
		dispatcher = events.NewInMemoryDispatcher(nil)
		service.NewAuditService(service.AuditDependencies{
			Dispatcher:  dispatcher,
			Configs:     configs,
			Gateway:     gw,
			HistoryRepo: history,
		}).RegisterHandlers()
		policy = nil

		requester = domain.Actor{ID: "42", DisplayName: "alice"}
		stranger = domain.Actor{ID: "77", DisplayName: "mallory"}
		supporter = domain.Actor{ID: "55", DisplayName: "sam", RoleIDs: []string{supportRoleID}}
		admin = domain.Actor{ID: "99", DisplayName: "root", IsAdmin: true}
		build()
	})

	openFor := func(actor domain.Actor, reason string) *service.OpenResult {
		result, err := svc.OpenTicket(ctx, actor, guildID, reason)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Describe("OpenTicket", func() {
		It("creates a private thread for a first-time requester", func() {
			result := openFor(requester, "billing issue")

			Expect(result.Outcome).To(Equal(service.OpenCreated))
			ticket := result.Ticket
			Expect(ticket.Name).To(Equal("ticket-42-20240301-120000"))
			Expect(ticket.State).To(Equal(domain.TicketStateOpen))
			Expect(ticket.ChannelID).To(Equal(channelID))
			Expect(gw.createThreadCalls).To(Equal(1))
			Expect(gw.threadMembers(ticket.ID)).To(ConsistOf("42"))

			posted := gw.messagesTo(ticket.ID)
			Expect(posted).To(HaveLen(2))
			Expect(posted[0].Content).To(Equal("<@&" + supportRoleID + "> New ticket created!"))
			Expect(posted[0].MentionRoleIDs).To(ConsistOf(supportRoleID))
			Expect(posted[1].Embed).NotTo(BeNil())
			Expect(posted[1].Embed.Title).To(Equal("Ticket from alice"))
			Expect(posted[1].Embed.Description).To(ContainSubstring("billing issue"))
			Expect(posted[1].Embed.Footer).To(Equal("User ID: 42"))
			Expect(posted[1].Buttons).To(HaveLen(2))

			indexed, err := tickets.GetByID(ctx, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(indexed.RequesterID).To(Equal("42"))
		})

		It("writes a Ticket Created entry to the log channel", func() {
			result := openFor(requester, "billing issue")

			logged := gw.messagesTo(logChannelID)
			Expect(logged).To(HaveLen(1))
			Expect(logged[0].Embed.Title).To(Equal("Ticket Created"))
			Expect(logged[0].Embed.Description).To(ContainSubstring("<@42>"))
			Expect(logged[0].Embed.Description).To(ContainSubstring("<#" + result.Ticket.ID + ">"))
			Expect(logged[0].Embed.Description).To(ContainSubstring("billing issue"))

			entries, err := history.ListByTicket(ctx, result.Ticket.ID, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Type).To(Equal(domain.TicketEventCreated))
		})

		It("skips the support ping when no role is configured", func() {
			cfg := configs.configs[guildID]
			cfg.SupportRoleID = nil
			configs.configs[guildID] = cfg

			result := openFor(requester, "billing issue")

			posted := gw.messagesTo(result.Ticket.ID)
			Expect(posted).To(HaveLen(1))
			Expect(posted[0].Embed).NotTo(BeNil())
		})

		It("reports the existing ticket instead of creating a second one", func() {
			first := openFor(requester, "billing issue")

			result, err := svc.OpenTicket(ctx, requester, guildID, "still broken")
			Expect(errors.Is(err, apperrors.ErrAlreadyOpen)).To(BeTrue())
			Expect(result).NotTo(BeNil())
			Expect(result.Outcome).To(Equal(service.OpenAlreadyOpen))
			Expect(result.Ticket.ID).To(Equal(first.Ticket.ID))
			Expect(gw.createThreadCalls).To(Equal(1))
		})

		It("reopens an archived ticket in place", func() {
			first := openFor(requester, "billing issue")
			_, err := svc.ManageTicket(ctx, requester, guildID, first.Ticket.ID, domain.ActionCloseTicket)
			Expect(err).NotTo(HaveOccurred())

			result := openFor(requester, "second problem")

			Expect(result.Outcome).To(Equal(service.OpenReopened))
			Expect(result.Ticket.ID).To(Equal(first.Ticket.ID))
			Expect(result.Ticket.State).To(Equal(domain.TicketStateOpen))
			Expect(result.Ticket.Reason).To(Equal("second problem"))
			Expect(gw.channel(first.Ticket.ID).Archived).To(BeFalse())
			Expect(gw.createThreadCalls).To(Equal(1))

			posted := gw.messagesTo(first.Ticket.ID)
			Expect(posted[len(posted)-1].Content).To(Equal("<@42> Ticket reopened with new reason: second problem"))

			entries, err := history.ListByTicket(ctx, first.Ticket.ID, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			var types []domain.TicketEventType
			for _, e := range entries {
				types = append(types, e.Type)
			}
			Expect(types).To(Equal([]domain.TicketEventType{
				domain.TicketEventCreated,
				domain.TicketEventClosed,
				domain.TicketEventReopened,
			}))
		})

		It("reopens a thread that was archived directly on the platform", func() {
			first := openFor(requester, "billing issue")
			Expect(gw.SetThreadArchived(ctx, first.Ticket.ID, true)).To(Succeed())

			result := openFor(requester, "again")

			Expect(result.Outcome).To(Equal(service.OpenReopened))
			Expect(result.Ticket.ID).To(Equal(first.Ticket.ID))
		})

		It("creates a fresh ticket after the previous one was deleted", func() {
			first := openFor(requester, "billing issue")
			_, err := svc.ManageTicket(ctx, requester, guildID, first.Ticket.ID, domain.ActionDeleteTicket)
			Expect(err).NotTo(HaveOccurred())

			result := openFor(requester, "new issue")

			Expect(result.Outcome).To(Equal(service.OpenCreated))
			Expect(result.Ticket.ID).NotTo(Equal(first.Ticket.ID))
			Expect(gw.createThreadCalls).To(Equal(2))
		})

		It("retires an indexed ticket whose thread vanished", func() {
			first := openFor(requester, "billing issue")
			Expect(gw.DeleteChannel(ctx, first.Ticket.ID)).To(Succeed())

			result := openFor(requester, "hello again")

			Expect(result.Outcome).To(Equal(service.OpenCreated))
			old, err := tickets.GetByID(ctx, first.Ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(old.State).To(Equal(domain.TicketStateDeleted))
		})

		It("finds unindexed threads by name and prefers the open one", func() {
			gw.addChannel(gateway.Channel{
				ID: "610000000000000001", GuildID: guildID, ParentID: channelID, Kind: gateway.KindThread,
				Name: "ticket-42-20240101-000000", Archived: true, CreatedAt: fixedNow.Add(-time.Hour),
			})
			gw.addChannel(gateway.Channel{
				ID: "610000000000000002", GuildID: guildID, ParentID: channelID, Kind: gateway.KindThread,
				Name: "ticket-42-20231201-000000", CreatedAt: fixedNow.Add(-48 * time.Hour),
			})
			gw.addChannel(gateway.Channel{
				ID: "610000000000000003", GuildID: guildID, ParentID: channelID, Kind: gateway.KindThread,
				Name: "ticket-420-20240101-000000",
			})

			result, err := svc.OpenTicket(ctx, requester, guildID, "anything")

			Expect(errors.Is(err, apperrors.ErrAlreadyOpen)).To(BeTrue())
			Expect(result.Ticket.ID).To(Equal("610000000000000002"))
			Expect(gw.createThreadCalls).To(BeZero())

			indexed, err := tickets.FindLiveByRequester(ctx, guildID, "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(indexed.ID).To(Equal("610000000000000002"))
		})

		It("creates exactly one ticket under concurrent requests", func() {
			const attempts = 8
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				outcomes []service.OpenOutcome
			)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					result, err := svc.OpenTicket(ctx, requester, guildID, "race")
					if err != nil {
						Expect(errors.Is(err, apperrors.ErrAlreadyOpen)).To(BeTrue())
					}
					mu.Lock()
					outcomes = append(outcomes, result.Outcome)
					mu.Unlock()
				}()
			}
			wg.Wait()

			Expect(gw.createThreadCalls).To(Equal(1))
			created := 0
			for _, outcome := range outcomes {
				if outcome == service.OpenCreated {
					created++
				}
			}
			Expect(created).To(Equal(1))
		})

		It("discards its thread when another replica indexed a ticket first", func() {
			existing := &domain.Ticket{
				ID: "620000000000000001", GuildID: guildID, ChannelID: channelID, RequesterID: requester.ID,
				Name: "ticket-42-20240301-115959", State: domain.TicketStateOpen, CreatedAt: fixedNow,
			}
			Expect(tickets.Create(ctx, existing)).To(Succeed())
			tickets = &racingTicketRepo{TicketRepository: tickets}
			build()

			result, err := svc.OpenTicket(ctx, requester, guildID, "race")

			Expect(errors.Is(err, apperrors.ErrAlreadyOpen)).To(BeTrue())
			Expect(result.Outcome).To(Equal(service.OpenAlreadyOpen))
			Expect(result.Ticket.ID).To(Equal(existing.ID))
			Expect(gw.createThreadCalls).To(Equal(1))
			Expect(gw.deleteCalls).To(Equal(1))
		})

		It("still reports success when follow-up notices fail", func() {
			gw.sendMessageFn = func(context.Context, string, gateway.Message) error {
				return errors.New("rate limited")
			}
			gw.addMemberFn = func(context.Context, string, string) error {
				return gateway.ErrForbidden
			}

			result := openFor(requester, "billing issue")

			Expect(result.Outcome).To(Equal(service.OpenCreated))
			_, err := tickets.GetByID(ctx, result.Ticket.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails with PlatformUnavailable when the thread cannot be created", func() {
			gw.createThreadFn = func(context.Context, string, string, string) (*gateway.Channel, error) {
				return nil, gateway.ErrForbidden
			}

			_, err := svc.OpenTicket(ctx, requester, guildID, "billing issue")

			Expect(errors.Is(err, apperrors.ErrPlatformUnavailable)).To(BeTrue())
			Expect(errors.Is(err, gateway.ErrForbidden)).To(BeTrue())
			_, lookupErr := tickets.FindLiveByRequester(ctx, guildID, "42")
			Expect(lookupErr).To(MatchError(repository.ErrNotFound))
		})

		It("refuses unconfigured workspaces without touching the platform", func() {
			delete(configs.configs, guildID)

			_, err := svc.OpenTicket(ctx, requester, guildID, "billing issue")

			Expect(errors.Is(err, apperrors.ErrNotConfigured)).To(BeTrue())
			Expect(gw.createThreadCalls).To(BeZero())
		})

		It("reports a missing category", func() {
			Expect(gw.DeleteChannel(ctx, categoryID)).To(Succeed())

			_, err := svc.OpenTicket(ctx, requester, guildID, "billing issue")

			Expect(errors.Is(err, apperrors.ErrCategoryMissing)).To(BeTrue())
		})

		It("reports a missing ticket channel", func() {
			Expect(gw.DeleteChannel(ctx, channelID)).To(Succeed())

			_, err := svc.OpenTicket(ctx, requester, guildID, "billing issue")

			Expect(errors.Is(err, apperrors.ErrTicketChannelMissing)).To(BeTrue())
			Expect(gw.createThreadCalls).To(BeZero())
		})

		It("rejects blank and oversized reasons", func() {
			_, err := svc.OpenTicket(ctx, requester, guildID, "   ")
			Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeValidationFailed))

			long := make([]byte, 1001)
			for i := range long {
				long[i] = 'x'
			}
			_, err = svc.OpenTicket(ctx, requester, guildID, string(long))
			Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeValidationFailed))
			Expect(gw.createThreadCalls).To(BeZero())
		})
	})

	Describe("ManageTicket", func() {
		var ticket *domain.Ticket

		BeforeEach(func() {
			ticket = openFor(requester, "billing issue").Ticket
		})

		It("lets the requester close their ticket", func() {
			closed, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)

			Expect(err).NotTo(HaveOccurred())
			Expect(closed.State).To(Equal(domain.TicketStateArchived))
			Expect(closed.ClosedAt).NotTo(BeNil())
			thread := gw.channel(ticket.ID)
			Expect(thread.Archived).To(BeTrue())
			Expect(thread.Locked).To(BeTrue())

			logged := gw.messagesTo(logChannelID)
			Expect(logged[len(logged)-1].Embed.Title).To(Equal("Ticket Closed"))
			Expect(logged[len(logged)-1].Embed.Description).To(ContainSubstring("**Closed by:** <@42>"))
		})

		It("treats closing an archived ticket as a no-op", func() {
			_, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(err).NotTo(HaveOccurred())
			calls := gw.setArchivedCalls

			again, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)

			Expect(err).NotTo(HaveOccurred())
			Expect(again.State).To(Equal(domain.TicketStateArchived))
			Expect(gw.setArchivedCalls).To(Equal(calls))
		})

		It("lets support staff and admins act on any ticket", func() {
			_, err := svc.ManageTicket(ctx, supporter, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.ManageTicket(ctx, admin, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(err).NotTo(HaveOccurred())
		})

		It("forbids strangers and leaves the ticket untouched", func() {
			_, err := svc.ManageTicket(ctx, stranger, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(errors.Is(err, apperrors.ErrForbidden)).To(BeTrue())

			_, err = svc.ManageTicket(ctx, stranger, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(errors.Is(err, apperrors.ErrForbidden)).To(BeTrue())

			indexed, err := tickets.GetByID(ctx, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(indexed.State).To(Equal(domain.TicketStateOpen))
			Expect(gw.setArchivedCalls).To(BeZero())
			Expect(gw.deleteCalls).To(BeZero())
		})

		It("deletes idempotently", func() {
			deleted, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.State).To(Equal(domain.TicketStateDeleted))
			Expect(gw.channel(ticket.ID)).To(BeNil())

			again, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.State).To(Equal(domain.TicketStateDeleted))
			Expect(gw.deleteCalls).To(Equal(1))

			logged := gw.messagesTo(logChannelID)
			Expect(logged[len(logged)-1].Embed.Title).To(Equal("Ticket Deleted"))
		})

		It("refuses to close a deleted ticket", func() {
			_, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(errors.Is(err, apperrors.ErrTicketDeleted)).To(BeTrue())
		})

		It("succeeds when deleting a thread nobody knows about", func() {
			deleted, err := svc.ManageTicket(ctx, requester, guildID, "690000000000000000", domain.ActionDeleteTicket)

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.State).To(Equal(domain.TicketStateDeleted))
		})

		It("marks the ticket deleted when its thread vanished before closing", func() {
			gw.setArchivedFn = func(context.Context, string, bool) error { return gateway.ErrNotFound }

			_, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)

			Expect(errors.Is(err, apperrors.ErrTicketDeleted)).To(BeTrue())
			indexed, err := tickets.GetByID(ctx, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(indexed.State).To(Equal(domain.TicketStateDeleted))
		})

		It("keeps delete admin-only when configured", func() {
			policy = access.DefaultPolicy().WithDeleteAdminOnly()
			build()

			_, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(errors.Is(err, apperrors.ErrForbidden)).To(BeTrue())

			_, err = svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.ManageTicket(ctx, admin, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses unconfigured workspaces without touching the thread", func() {
			delete(configs.configs, guildID)

			_, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(errors.Is(err, apperrors.ErrNotConfigured)).To(BeTrue())

			_, err = svc.ManageTicket(ctx, admin, guildID, ticket.ID, domain.ActionDeleteTicket)
			Expect(errors.Is(err, apperrors.ErrNotConfigured)).To(BeTrue())

			Expect(gw.setArchivedCalls).To(BeZero())
			Expect(gw.deleteCalls).To(BeZero())
			indexed, err := tickets.GetByID(ctx, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(indexed.State).To(Equal(domain.TicketStateOpen))
		})

		It("rejects unsupported actions", func() {
			_, err := svc.ManageTicket(ctx, admin, guildID, ticket.ID, domain.ActionSetup)

			Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeValidationFailed))
		})
	})

	Describe("AddMember", func() {
		var ticket *domain.Ticket

		BeforeEach(func() {
			ticket = openFor(requester, "billing issue").Ticket
		})

		It("adds the user and announces it", func() {
			_, err := svc.AddMember(ctx, requester, guildID, ticket.ID, "88")

			Expect(err).NotTo(HaveOccurred())
			Expect(gw.threadMembers(ticket.ID)).To(ConsistOf("42", "88"))

			posted := gw.messagesTo(ticket.ID)
			notice := posted[len(posted)-1]
			Expect(notice.Content).To(Equal("I have added <@88> to this ticket by <@42>."))
			Expect(notice.MentionUserIDs).To(ConsistOf("88"))

			logged := gw.messagesTo(logChannelID)
			Expect(logged[len(logged)-1].Embed.Title).To(Equal("User Added to Ticket"))
		})

		It("does not add someone who is already a member", func() {
			calls := gw.addMemberCalls

			_, err := svc.AddMember(ctx, supporter, guildID, ticket.ID, "42")

			Expect(errors.Is(err, apperrors.ErrAlreadyMember)).To(BeTrue())
			Expect(gw.addMemberCalls).To(Equal(calls))
		})

		It("rejects channels that are not ticket threads", func() {
			_, err := svc.AddMember(ctx, requester, guildID, channelID, "88")

			Expect(errors.Is(err, apperrors.ErrNotAThread)).To(BeTrue())
		})

		It("rejects archived tickets", func() {
			_, err := svc.ManageTicket(ctx, requester, guildID, ticket.ID, domain.ActionCloseTicket)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.AddMember(ctx, requester, guildID, ticket.ID, "88")

			Expect(errors.Is(err, apperrors.ErrTicketArchived)).To(BeTrue())
		})

		It("forbids strangers", func() {
			calls := gw.addMemberCalls

			_, err := svc.AddMember(ctx, stranger, guildID, ticket.ID, "88")

			Expect(errors.Is(err, apperrors.ErrForbidden)).To(BeTrue())
			Expect(gw.addMemberCalls).To(Equal(calls))
		})

		It("refuses unconfigured workspaces without adopting stray threads", func() {
			stray := "690000000000000001"
			gw.addChannel(gateway.Channel{
				ID: stray, GuildID: guildID, ParentID: channelID,
				Name: "ticket-42-20240301-120000", Kind: gateway.KindThread,
			})
			delete(configs.configs, guildID)
			calls := gw.addMemberCalls

			_, err := svc.AddMember(ctx, requester, guildID, stray, "88")
			Expect(errors.Is(err, apperrors.ErrNotConfigured)).To(BeTrue())

			_, err = svc.AddMember(ctx, requester, guildID, ticket.ID, "88")
			Expect(errors.Is(err, apperrors.ErrNotConfigured)).To(BeTrue())

			Expect(gw.addMemberCalls).To(Equal(calls))
			_, err = tickets.GetByID(ctx, stray)
			Expect(err).To(MatchError(repository.ErrNotFound))
		})

		It("surfaces platform permission failures", func() {
			gw.addMemberFn = func(context.Context, string, string) error { return gateway.ErrForbidden }

			_, err := svc.AddMember(ctx, requester, guildID, ticket.ID, "88")

			Expect(errors.Is(err, apperrors.ErrPlatformUnavailable)).To(BeTrue())
			Expect(errors.Is(err, gateway.ErrForbidden)).To(BeTrue())
		})
	})

	Describe("GetTicket", func() {
		It("returns the ticket with its history", func() {
			ticket := openFor(requester, "billing issue").Ticket

			details, err := svc.GetTicket(ctx, guildID, ticket.ID, 10, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(details.Ticket.ID).To(Equal(ticket.ID))
			Expect(details.History).To(HaveLen(1))
		})

		It("hides tickets from other workspaces", func() {
			ticket := openFor(requester, "billing issue").Ticket

			_, err := svc.GetTicket(ctx, "100000000000000999", ticket.ID, 10, 0)

			Expect(apperrors.CodeOf(err)).To(Equal(apperrors.CodeNotFound))
		})
	})

	Describe("ListTickets", func() {
		It("filters by state", func() {
			first := openFor(requester, "billing issue").Ticket
			openFor(supporter, "other")
			_, err := svc.ManageTicket(ctx, requester, guildID, first.ID, domain.ActionCloseTicket)
			Expect(err).NotTo(HaveOccurred())

			archived, err := svc.ListTickets(ctx, repository.TicketFilter{
				GuildID: guildID,
				States:  []domain.TicketState{domain.TicketStateArchived},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(archived).To(HaveLen(1))
			Expect(archived[0].ID).To(Equal(first.ID))
		})
	})
})
