package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/frahmantamala/pos-backoffice/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

var _ = Describe("RedisBackend", func() {
	var (
		ctx     context.Context
		mr      *miniredis.Miniredis
		client  *redis.Client
		backend *RedisBackend
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())

		client, err = NewRedisClient(ctx, internal.RedisConfig{URL: "redis://" + mr.Addr()})
		Expect(err).NotTo(HaveOccurred())
		backend = NewRedisBackend(client)
	})

	AfterEach(func() {
		_ = backend.Close()
		mr.Close()
	})

	It("should reject an invalid url", func() {
		_, err := NewRedisClient(ctx, internal.RedisConfig{URL: "invalid://url"})
		Expect(err).To(HaveOccurred())
	})

	It("should report a miss for unknown keys", func() {
		_, err := backend.Get(ctx, "nope")
		Expect(err).To(MatchError(ErrMiss))
	})

	It("should store values with a ttl", func() {
		Expect(backend.Set(ctx, "perm:summary:alice", []byte(`{"SALES":2}`), 30*time.Minute)).To(Succeed())

		got, err := backend.Get(ctx, "perm:summary:alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal(`{"SALES":2}`))
		Expect(mr.TTL("perm:summary:alice")).To(Equal(30 * time.Minute))

		mr.FastForward(31 * time.Minute)
		_, err = backend.Get(ctx, "perm:summary:alice")
		Expect(err).To(MatchError(ErrMiss))
	})

	It("should delete keys", func() {
		Expect(backend.Set(ctx, "a", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Delete(ctx, "a")).To(Succeed())
		Expect(mr.Exists("a")).To(BeFalse())
		Expect(backend.Delete(ctx)).To(Succeed())
	})

	It("should delete every key under a prefix across scan batches", func() {
		for i := 0; i < scanBatchSize+25; i++ {
			Expect(backend.Set(ctx, fmt.Sprintf("perm:menus:user%d", i), []byte("x"), time.Minute)).To(Succeed())
		}
		Expect(backend.Set(ctx, "perm:hierarchy", []byte("x"), time.Minute)).To(Succeed())

		Expect(backend.DeletePrefix(ctx, "perm:menus:")).To(Succeed())

		Expect(mr.Keys()).To(ConsistOf("perm:hierarchy"))
	})

	It("should treat glob characters in a prefix literally", func() {
		Expect(backend.Set(ctx, "perm:summary:store/alice", []byte("x"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "perm:s*:bob", []byte("x"), time.Minute)).To(Succeed())

		Expect(backend.DeletePrefix(ctx, "perm:s*:")).To(Succeed())

		Expect(mr.Keys()).To(ConsistOf("perm:summary:store/alice"))
	})

	It("should surface errors when redis is down", func() {
		mr.Close()

		_, err := backend.Get(ctx, "a")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(ErrMiss))
		Expect(backend.Ping(ctx)).NotTo(Succeed())
	})
})
