// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

//go:build integration

package integration

import (
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("Session lifecycle", func() {
	const (
		email    = "a@x.com"
		password = "Secret12"
	)

	BeforeEach(func() {
		resetDatabase()
	})

	Describe("register", func() {
		It("returns a usable pair and stores the refresh credential", func() {
			resp := registerUser(email, password)

			Expect(resp.status).To(Equal(http.StatusCreated))
			pair := resp.tokens()
			Expect(pair.AccessToken).NotTo(BeEmpty())
			Expect(pair.RefreshToken).NotTo(BeEmpty())
			Expect(storedRefreshHash(email)).NotTo(BeNil())

			refreshed := call(http.MethodPost, "/auth/refresh", pair.RefreshToken, nil)
			Expect(refreshed.status).To(Equal(http.StatusOK))
		})

		It("rejects a taken email without writing", func() {
			Expect(registerUser(email, password).status).To(Equal(http.StatusCreated))
			before := storedRefreshHash(email)

			resp := registerUser(email, "Other123")

			Expect(resp.status).To(Equal(http.StatusConflict))
			Expect(resp.errorCode()).To(Equal("EMAIL_ALREADY_IN_USE"))
			Expect(countRows("users")).To(Equal(1))
			Expect(countRows("profiles")).To(Equal(1))
			Expect(storedRefreshHash(email)).To(Equal(before))
		})

		It("reports validation failures per field", func() {
			resp := call(http.MethodPost, "/auth/register", "", map[string]any{
				"email":     "not-an-email",
				"password":  "123",
				"firstName": "A",
				"lastName":  "Lovelace",
				"birthDate": "1990-12-10",
			})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body["message"]).To(Equal("Validation failed"))
			Expect(resp.errorCode()).To(Equal("VALIDATION_ERROR"))
			Expect(countRows("users")).To(BeZero())
		})
	})

	Describe("login", func() {
		BeforeEach(func() {
			Expect(registerUser(email, password).status).To(Equal(http.StatusCreated))
		})

		It("replaces the stored refresh credential", func() {
			before := storedRefreshHash(email)

			resp := login(email, password)

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(storedRefreshHash(email)).NotTo(Equal(before))
		})

		It("answers unknown email and wrong password identically", func() {
			unknown := login("nobody@x.com", password)
			wrong := login(email, "Wrong123")

			Expect(unknown.status).To(Equal(http.StatusUnauthorized))
			Expect(wrong.status).To(Equal(http.StatusUnauthorized))
			Expect(unknown.body).To(Equal(wrong.body))
			Expect(unknown.errorCode()).To(Equal("INVALID_CREDENTIALS"))
		})
	})

	Describe("refresh", func() {
		It("rotates and rejects the stale token", func() {
			Expect(registerUser(email, password).status).To(Equal(http.StatusCreated))
			pair1 := login(email, password).tokens()

			second := call(http.MethodPost, "/auth/refresh", pair1.RefreshToken, nil)
			Expect(second.status).To(Equal(http.StatusOK))
			pair2 := second.tokens()
			Expect(pair2.RefreshToken).NotTo(Equal(pair1.RefreshToken))

			stale := call(http.MethodPost, "/auth/refresh", pair1.RefreshToken, nil)
			Expect(stale.status).To(Equal(http.StatusUnauthorized))
			Expect(stale.errorCode()).To(Equal("INVALID_REFRESH_TOKEN"))

			again := call(http.MethodPost, "/auth/refresh", pair2.RefreshToken, nil)
			Expect(again.status).To(Equal(http.StatusOK))
		})

		It("never accepts an access token", func() {
			pair := registerUser(email, password).tokens()

			resp := call(http.MethodPost, "/auth/refresh", pair.AccessToken, nil)

			Expect(resp.status).To(Equal(http.StatusUnauthorized))
			Expect(resp.errorCode()).To(Equal("INVALID_REFRESH_TOKEN"))
		})

		It("lets exactly one of two concurrent refreshes win", func() {
			pair := registerUser(email, password).tokens()

			var wg sync.WaitGroup
			statuses := make([]int, 2)
			for i := range statuses {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					statuses[i] = call(http.MethodPost, "/auth/refresh", pair.RefreshToken, nil).status
				}()
			}
			wg.Wait()

			Expect(statuses).To(ConsistOf(http.StatusOK, http.StatusUnauthorized))
		})
	})

	Describe("logout", func() {
		It("clears the refresh credential and is idempotent", func() {
			pair := registerUser(email, password).tokens()

			first := call(http.MethodPost, "/auth/logout", pair.AccessToken, nil)
			Expect(first.status).To(Equal(http.StatusOK))
			Expect(first.body["message"]).To(Equal("Logged out successfully"))
			Expect(storedRefreshHash(email)).To(BeNil())

			second := call(http.MethodPost, "/auth/logout", pair.AccessToken, nil)
			Expect(second.status).To(Equal(http.StatusOK))

			refreshed := call(http.MethodPost, "/auth/refresh", pair.RefreshToken, nil)
			Expect(refreshed.status).To(Equal(http.StatusUnauthorized))
			Expect(refreshed.errorCode()).To(Equal("INVALID_REFRESH_TOKEN"))
		})

		It("requires an access token", func() {
			pair := registerUser(email, password).tokens()

			resp := call(http.MethodPost, "/auth/logout", pair.RefreshToken, nil)

			Expect(resp.status).To(Equal(http.StatusUnauthorized))
			Expect(resp.errorCode()).To(Equal("INVALID_ACCESS_TOKEN"))
		})
	})
})
