package configstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/configstore"
	"github.com/spec-kit/ticket-bot/internal/domain"
)

// racingStore runs onGet once, after the wrapped read, to slip a write in
// between a cache miss and the fill.
type racingStore struct {
	configstore.Store
	onGet func()
}

func (r *racingStore) Get(ctx context.Context, guildID string) domain.WorkspaceConfig {
	cfg := r.Store.Get(ctx, guildID)
	if hook := r.onGet; hook != nil {
		r.onGet = nil
		hook()
	}
	return cfg
}

var _ = Describe("CachedStore", func() {
	var (
		ctx   context.Context
		inner *configstore.FileStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		inner = configstore.NewFileStore(filepath.Join(GinkgoT().TempDir(), "config.json"), zap.NewNop())
	})

	unreachable := func() *redis.Client {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		DeferCleanup(client.Close)
		return client
	}

	live := func() *redis.Client {
		addr := os.Getenv("TICKETS_TEST_REDIS_ADDR")
		if addr == "" {
			Skip("TICKETS_TEST_REDIS_ADDR not set")
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		DeferCleanup(client.Close)
		Expect(client.Ping(ctx).Err()).To(Succeed())
		return client
	}

	It("falls through to the inner store when the cache is down", func() {
		store := configstore.NewCachedStore(inner, unreachable(), time.Minute, zap.NewNop())

		cfg := domain.WorkspaceConfig{TicketChannelID: "300", CategoryID: "200"}
		Expect(store.Set(ctx, "1", cfg)).To(Succeed())
		Expect(store.Get(ctx, "1").Equal(cfg)).To(BeTrue())
	})

	It("keeps every guild when writers race through the cache", func() {
		store := configstore.NewCachedStore(inner, unreachable(), time.Minute, zap.NewNop())

		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				id := strconv.Itoa(i)
				Expect(store.Set(ctx, id, domain.WorkspaceConfig{TicketChannelID: "3" + id, CategoryID: "2" + id})).To(Succeed())
			}(i)
		}
		wg.Wait()

		for i := 0; i < writers; i++ {
			id := strconv.Itoa(i)
			Expect(inner.Get(ctx, id).TicketChannelID).To(Equal("3" + id))
			Expect(store.Get(ctx, id).TicketChannelID).To(Equal("3" + id))
		}
	})

	DescribeTable("does not cache a config read before a concurrent Set",
		func(client func() *redis.Client) {
			guildID := strconv.FormatInt(time.Now().UnixNano(), 10)
			old := domain.WorkspaceConfig{TicketChannelID: "300", CategoryID: "200"}
			fresh := domain.WorkspaceConfig{TicketChannelID: "301", CategoryID: "200"}
			Expect(inner.Set(ctx, guildID, old)).To(Succeed())

			cache := client()
			DeferCleanup(func() {
				cache.Del(context.Background(), "tickets:config:"+guildID, "tickets:config-version:"+guildID)
			})
			racing := &racingStore{Store: inner}
			store := configstore.NewCachedStore(racing, cache, time.Minute, zap.NewNop())
			racing.onGet = func() {
				Expect(store.Set(ctx, guildID, fresh)).To(Succeed())
			}

			Expect(store.Get(ctx, guildID).TicketChannelID).To(Equal("300"))
			Expect(store.Get(ctx, guildID).Equal(fresh)).To(BeTrue())
		},
		Entry("with the cache down", unreachable),
		Entry("with a live cache", live),
	)
})
