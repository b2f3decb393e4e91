// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/passcode/internal/auth"
	"github.com/holomush/passcode/internal/auth/memory"
	"github.com/holomush/passcode/internal/secret"
)

var _ = Describe("Passcode", func() {
	var (
		pc   *auth.Passcode
		salt string
	)

	BeforeEach(func() {
		var err error
		pc, err = auth.NewDefaultPasscode(auth.DefaultPolicy())
		Expect(err).NotTo(HaveOccurred())
		salt, err = secret.Salt()
		Expect(err).NotTo(HaveOccurred())
		Expect(salt).To(HaveLen(32))
	})

	Describe("a password credential", func() {
		var stored auth.StoredCredential

		BeforeEach(func() {
			hash, kind, err := pc.ComputeHash(salt, "Str0ngP@ss!")
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(auth.KindPassword))
			stored = auth.StoredCredential{Salt: salt, Hash: hash}
		})

		It("is 128 hex characters", func() {
			Expect(stored.Hash).To(HaveLen(128))
			Expect(stored.Hash).To(MatchRegexp(`^[0-9a-f]+$`))
		})

		It("matches the original secret only", func() {
			Expect(pc.Matches(stored, "Str0ngP@ss!")).To(BeTrue())
			Expect(pc.Matches(stored, "wrong")).To(BeFalse())
		})

		It("is inferred as a password", func() {
			Expect(pc.Resolver().InferKind(auth.Candidate{PasswordHash: stored.Hash})).To(Equal(auth.KindPassword))
		})
	})

	Describe("a pin credential", func() {
		It("is hashed on the pin path and inferred as a pin", func() {
			hash, kind, err := pc.ComputeHash(salt, "7f3a")
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(auth.KindPin))
			Expect(hash).To(HaveLen(64))
			Expect(pc.Resolver().InferKind(auth.Candidate{PinHash: hash})).To(Equal(auth.KindPin))
		})
	})

	DescribeTable("fails closed",
		func(stored auth.StoredCredential, candidate string) {
			ok, err := pc.Matches(stored, candidate)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		},
		Entry("empty stored hash", auth.StoredCredential{Salt: "00"}, "Str0ngP@ss!"),
		Entry("empty candidate", auth.StoredCredential{Salt: "00", Hash: "ab"}, ""),
		Entry("unset kind", auth.StoredCredential{Salt: "00", Hash: "abcdef"}, "Str0ngP@ss!"),
	)
})

var _ = Describe("ResetTokenManager", func() {
	var (
		ctx   context.Context
		store *memory.ResetTokenStore
		mgr   *auth.ResetTokenManager
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewResetTokenStore()
		var err error
		mgr, err = auth.NewResetTokenManager(store, secret.NewGenerator())
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps tokens of different users apart", func() {
		tokenA, err := mgr.Issue(ctx, "user-a")
		Expect(err).NotTo(HaveOccurred())
		tokenB, err := mgr.Issue(ctx, "user-b")
		Expect(err).NotTo(HaveOccurred())
		Expect(tokenA).NotTo(Equal(tokenB))

		Expect(mgr.InvalidateAll(ctx, "user-a")).To(BeTrue())

		_, err = mgr.Validate(ctx, tokenA)
		Expect(err).To(MatchError(auth.ErrNotFound))
		Expect(mgr.Validate(ctx, tokenB)).To(Equal("user-b"))
	})

	It("reports false when there is nothing to invalidate", func() {
		Expect(mgr.InvalidateAll(ctx, "nobody")).To(BeFalse())
	})

	It("never stores the plaintext token", func() {
		token, err := mgr.Issue(ctx, "user-a")
		Expect(err).NotTo(HaveOccurred())

		_, err = store.GetByTokenHash(ctx, token)
		Expect(err).To(MatchError(auth.ErrNotFound))
		stored, err := store.GetByTokenHash(ctx, auth.HashResetToken(token))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.UserID).To(Equal("user-a"))
	})
})
