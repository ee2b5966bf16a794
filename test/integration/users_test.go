// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

//go:build integration

package integration

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("Users", func() {
	var (
		ownerToken string
		otherToken string
		ownerID    string
	)

	BeforeEach(func() {
		resetDatabase()
		ownerToken = registerUser("owner@x.com", "Secret12").tokens().AccessToken
		otherToken = registerUser("other@x.com", "Secret12").tokens().AccessToken

		var id string
		Expect(env.pool.QueryRow(env.ctx, "SELECT id FROM users WHERE email = $1", "owner@x.com").Scan(&id)).To(Succeed())
		ownerID = id
	})

	It("lists profiles with paging metadata", func() {
		resp := call(http.MethodGet, "/users?page=1&limit=1", ownerToken, nil)

		Expect(resp.status).To(Equal(http.StatusOK))
		Expect(resp.body["data"]).To(HaveLen(1))
		meta, ok := resp.body["meta"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(meta["total"]).To(BeNumerically("==", 2))
		Expect(meta["totalPages"]).To(BeNumerically("==", 2))
	})

	It("lets the owner edit the profile", func() {
		resp := call(http.MethodPut, "/users/"+ownerID, ownerToken, map[string]any{"bio": "Analyst"})

		Expect(resp.status).To(Equal(http.StatusOK))
		profile, ok := resp.body["profile"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(profile["bio"]).To(Equal("Analyst"))
	})

	It("forbids editing someone else's profile", func() {
		resp := call(http.MethodPut, "/users/"+ownerID, otherToken, map[string]any{"bio": "Hijacked"})

		Expect(resp.status).To(Equal(http.StatusForbidden))
		Expect(resp.errorCode()).To(Equal("USER_NOT_ALLOWED_TO_EDIT_PROFILE"))
	})

	It("deletes the account and invalidates its access token", func() {
		resp := call(http.MethodDelete, "/users/"+ownerID, ownerToken, nil)
		Expect(resp.status).To(Equal(http.StatusOK))
		Expect(countRows("profiles")).To(Equal(1))

		gone := call(http.MethodGet, "/users", ownerToken, nil)
		Expect(gone.status).To(Equal(http.StatusUnauthorized))
		Expect(gone.errorCode()).To(Equal("INVALID_ACCESS_TOKEN"))
	})
})
