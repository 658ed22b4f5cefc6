package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/bwmarrin/discordgo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/gateway"
)

var _ = Describe("DiscordGateway", func() {
	var (
		server *httptest.Server
		gw     *gateway.DiscordGateway
	)

	BeforeEach(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/channels/175928847299117063", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"175928847299117063","guild_id":"1","parent_id":"3","type":12,` +
				`"name":"ticket-42-20240301-120000","thread_metadata":{"archived":true,"locked":true}}`))
		})
		mux.HandleFunc("/channels/404", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Unknown Channel","code":10003}`))
		})
		mux.HandleFunc("/channels/403", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Missing Access","code":50001}`))
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		previous := discordgo.EndpointChannels
		discordgo.EndpointChannels = server.URL + "/channels/"
		DeferCleanup(func() { discordgo.EndpointChannels = previous })

		session, err := gateway.NewDiscordSession("token", time.Second)
		Expect(err).NotTo(HaveOccurred())
		gw = gateway.NewDiscordGateway(session, zap.NewNop())
	})

	It("converts private threads", func() {
		ch, err := gw.Channel(context.Background(), "175928847299117063")

		Expect(err).NotTo(HaveOccurred())
		Expect(ch.IsThread()).To(BeTrue())
		Expect(ch.ParentID).To(Equal("3"))
		Expect(ch.Archived).To(BeTrue())
		Expect(ch.Locked).To(BeTrue())
		Expect(ch.CreatedAt).To(Equal(time.UnixMilli(1462015105796).UTC()))
	})

	It("maps missing channels to ErrNotFound", func() {
		_, err := gw.Channel(context.Background(), "404")
		Expect(err).To(MatchError(gateway.ErrNotFound))
	})

	It("maps permission failures to ErrForbidden", func() {
		_, err := gw.Channel(context.Background(), "403")
		Expect(err).To(MatchError(gateway.ErrForbidden))
	})
})
