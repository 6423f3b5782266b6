package cache

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryBackend", func() {
	var (
		ctx     context.Context
		backend *MemoryBackend
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		backend = NewMemoryBackend(100, time.Hour)
		backend.now = func() time.Time { return now }
	})

	It("should return ErrMiss for unknown keys", func() {
		_, err := backend.Get(ctx, "perm:menus:alice")
		Expect(err).To(MatchError(ErrMiss))
	})

	It("should round-trip a value", func() {
		Expect(backend.Set(ctx, "k", []byte("v"), time.Minute)).To(Succeed())

		got, err := backend.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("v"))
	})

	It("should not let callers mutate stored bytes", func() {
		value := []byte("abc")
		Expect(backend.Set(ctx, "k", value, time.Minute)).To(Succeed())
		value[0] = 'z'

		got, _ := backend.Get(ctx, "k")
		got[1] = 'z'

		again, _ := backend.Get(ctx, "k")
		Expect(string(again)).To(Equal("abc"))
	})

	It("should expire entries by their own ttl", func() {
		Expect(backend.Set(ctx, "short", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "long", []byte("2"), 30*time.Minute)).To(Succeed())

		now = now.Add(2 * time.Minute)

		_, err := backend.Get(ctx, "short")
		Expect(err).To(MatchError(ErrMiss))
		_, err = backend.Get(ctx, "long")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should delete explicit keys", func() {
		Expect(backend.Set(ctx, "a", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "b", []byte("2"), time.Minute)).To(Succeed())

		Expect(backend.Delete(ctx, "a", "missing")).To(Succeed())

		_, err := backend.Get(ctx, "a")
		Expect(err).To(MatchError(ErrMiss))
		_, err = backend.Get(ctx, "b")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should delete keys under a prefix only", func() {
		Expect(backend.Set(ctx, "perm:menus:alice", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "perm:menus:bob", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "perm:summary:alice", []byte("1"), time.Minute)).To(Succeed())

		Expect(backend.DeletePrefix(ctx, "perm:menus:")).To(Succeed())

		Expect(backend.Len()).To(Equal(1))
		_, err := backend.Get(ctx, "perm:summary:alice")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should delete prefixed keys whose suffix contains a slash", func() {
		Expect(backend.Set(ctx, "perm:summary:store/alice", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "perm:summary:bob", []byte("1"), time.Minute)).To(Succeed())
		Expect(backend.Set(ctx, "perm:hierarchy", []byte("1"), time.Minute)).To(Succeed())

		Expect(backend.DeletePrefix(ctx, "perm:summary:")).To(Succeed())

		_, err := backend.Get(ctx, "perm:summary:store/alice")
		Expect(err).To(MatchError(ErrMiss))
		Expect(backend.Len()).To(Equal(1))
	})
})
