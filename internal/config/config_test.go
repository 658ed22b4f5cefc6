package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/config"
)

var _ = Describe("Load", func() {
	BeforeEach(func() {
		GinkgoT().Setenv("DISCORD_TOKEN", "bot-token")
		GinkgoT().Setenv("DISCORD_PUBLIC_KEY", "abcd")
	})

	It("applies defaults", func() {
		cfg, err := config.Load()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.App.Addr()).To(Equal("0.0.0.0:8080"))
		Expect(cfg.Tickets.CategoryName).To(Equal("Tickets"))
		Expect(cfg.Tickets.EntryChannelName).To(Equal("create-ticket"))
		Expect(cfg.Tickets.ConfigFile).To(Equal("ticket_config.json"))
		Expect(cfg.Tickets.DeleteAdminOnly).To(BeFalse())
		Expect(cfg.Tickets.LockWait()).To(Equal(10 * time.Second))
		Expect(cfg.Discord.RequestTimeout()).To(Equal(15 * time.Second))
		Expect(cfg.NATS.URL).To(BeEmpty())
	})

	It("reads overrides", func() {
		GinkgoT().Setenv("ACCESS_DELETE_ADMIN_ONLY", "true")
		GinkgoT().Setenv("TICKET_LOCK_TTL_SECONDS", "5")
		GinkgoT().Setenv("NATS_SUBJECT_PREFIX", "prod.tickets")

		cfg, err := config.Load()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Tickets.DeleteAdminOnly).To(BeTrue())
		Expect(cfg.Tickets.LockTTL()).To(Equal(5 * time.Second))
		Expect(cfg.NATS.SubjectPrefix).To(Equal("prod.tickets"))
	})

	It("requires the bot token", func() {
		GinkgoT().Setenv("DISCORD_TOKEN", "")

		_, err := config.Load()
		Expect(err).To(MatchError(ContainSubstring("DISCORD_TOKEN")))
	})

	It("rejects a malformed redis db", func() {
		GinkgoT().Setenv("REDIS_DB", "one")

		_, err := config.Load()
		Expect(err).To(HaveOccurred())
	})
})
