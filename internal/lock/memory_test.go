package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/lock"
)

var _ = Describe("MemoryLocker", func() {
	var locker *lock.MemoryLocker

	BeforeEach(func() {
		locker = lock.NewMemoryLocker()
	})

	It("serializes holders of the same key", func() {
		var (
			wg      sync.WaitGroup
			inside  int32
			maxSeen int32
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				release, err := locker.Acquire(context.Background(), lock.CreationKey("1", "42"))
				Expect(err).NotTo(HaveOccurred())
				n := atomic.AddInt32(&inside, 1)
				for {
					seen := atomic.LoadInt32(&maxSeen)
					if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				release()
			}()
		}
		wg.Wait()
		Expect(atomic.LoadInt32(&maxSeen)).To(Equal(int32(1)))
	})

	It("does not block other keys", func() {
		release, err := locker.Acquire(context.Background(), lock.CreationKey("1", "42"))
		Expect(err).NotTo(HaveOccurred())
		defer release()

		other, err := locker.Acquire(context.Background(), lock.CreationKey("1", "43"))
		Expect(err).NotTo(HaveOccurred())
		other()
	})

	It("gives up when the context ends", func() {
		release, err := locker.Acquire(context.Background(), "k")
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = locker.Acquire(ctx, "k")
		Expect(err).To(MatchError(context.DeadlineExceeded))

		release()
		release()
		again, err := locker.Acquire(context.Background(), "k")
		Expect(err).NotTo(HaveOccurred())
		again()
	})
})
