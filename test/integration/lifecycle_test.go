// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

//go:build integration

// Package integration provides end-to-end integration tests for accountd.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/accounttest"
	"github.com/accountd/accountd/internal/api"
	"github.com/accountd/accountd/internal/notify"
	"github.com/accountd/accountd/internal/token"
)

// testEnv holds the resources for one lifecycle run: the full HTTP stack
// over in-memory storage and a capturing notification gateway.
type testEnv struct {
	server  *httptest.Server
	gateway *accounttest.CaptureGateway
}

func setupTestEnv() (*testEnv, error) {
	repo := accounttest.NewRepository()
	gateway := accounttest.NewCaptureGateway()

	tokens, err := token.NewService(token.Config{Secret: "integration-secret-0123456789abcdef"})
	if err != nil {
		return nil, err
	}

	renderer, err := notify.NewRenderer("https://app.example.com")
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := account.NewServiceWithLogger(repo, account.NewArgon2idHasher(), tokens, renderer, gateway, log)
	if err != nil {
		return nil, err
	}

	handler, err := api.NewHandler(svc, log, nil)
	if err != nil {
		return nil, err
	}

	return &testEnv{
		server:  httptest.NewServer(handler.Routes()),
		gateway: gateway,
	}, nil
}

func (env *testEnv) cleanup() {
	env.server.Close()
}

func (env *testEnv) post(path string, body map[string]string) (*http.Response, map[string]any) {
	payload, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())

	resp, err := http.Post(env.server.URL+path, "application/json", bytes.NewReader(payload))
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)

	var decoded map[string]any
	if resp.Header.Get("Content-Type") != "" {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func (env *testEnv) get(path, bearer string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(http.MethodGet, env.server.URL+path, nil)
	Expect(err).NotTo(HaveOccurred())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// lastEmailToken extracts the token query parameter from the most recently
// captured email.
func (env *testEnv) lastEmailToken() string {
	sent, ok := env.gateway.Last()
	Expect(ok).To(BeTrue(), "an email should have been dispatched")

	_, after, found := strings.Cut(sent.HTML, "token=")
	Expect(found).To(BeTrue(), "email carries no token link")
	tok, _, found := strings.Cut(after, `"`)
	Expect(found).To(BeTrue())
	return tok
}

var _ = Describe("Account lifecycle", func() {
	var env *testEnv

	registration := map[string]string{
		"name":     "Ann Example",
		"email":    "ann@x.com",
		"phone":    "+15551234567",
		"password": "correct horse battery",
	}

	BeforeEach(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(env.cleanup)
	})

	Describe("registration through introspection", func() {
		It("walks an account from signup to an authenticated request", func() {
			By("registering a new account")
			resp, body := env.post("/v1/register", registration)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["email"]).To(Equal(registration["email"]))
			Expect(body).NotTo(HaveKey("password_hash"))

			By("refusing login before email verification")
			resp, _ = env.post("/v1/login", map[string]string{
				"email":    registration["email"],
				"password": registration["password"],
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			By("verifying the emailed token")
			resp, _ = env.post("/v1/verify-email", map[string]string{"token": env.lastEmailToken()})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			By("logging in with the verified account")
			resp, body = env.post("/v1/login", map[string]string{
				"email":    registration["email"],
				"password": registration["password"],
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["token_type"]).To(Equal("bearer"))
			accessToken, _ := body["access_token"].(string)
			Expect(accessToken).NotTo(BeEmpty())

			By("introspecting the access token")
			resp, body = env.get("/v1/me", accessToken)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["name"]).To(Equal(registration["name"]))
			Expect(body["email"]).To(Equal(registration["email"]))
		})

		It("rejects a duplicate registration", func() {
			resp, _ := env.post("/v1/register", registration)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			resp, _ = env.post("/v1/register", registration)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("password reset", func() {
		BeforeEach(func() {
			resp, _ := env.post("/v1/register", registration)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			resp, _ = env.post("/v1/verify-email", map[string]string{"token": env.lastEmailToken()})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})

		It("replaces the password via the emailed reset token", func() {
			By("requesting a reset")
			resp, _ := env.post("/v1/password-recovery", map[string]string{"email": registration["email"]})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			By("submitting the new password")
			resp, _ = env.post("/v1/reset-password", map[string]string{
				"token":    env.lastEmailToken(),
				"password": "brand new password",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			By("rejecting the old password")
			resp, _ = env.post("/v1/login", map[string]string{
				"email":    registration["email"],
				"password": registration["password"],
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			By("accepting the new password")
			resp, _ = env.post("/v1/login", map[string]string{
				"email":    registration["email"],
				"password": "brand new password",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("reports unknown emails", func() {
			resp, _ := env.post("/v1/password-recovery", map[string]string{"email": "ghost@x.com"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("token purpose scoping", func() {
		It("refuses a verification token everywhere but verify-email", func() {
			resp, _ := env.post("/v1/register", registration)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			verifyToken := env.lastEmailToken()

			resp, _ = env.post("/v1/reset-password", map[string]string{
				"token":    verifyToken,
				"password": "another password",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			resp, _ = env.get("/v1/me", verifyToken)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			resp, _ = env.post("/v1/verify-email", map[string]string{"token": verifyToken})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})
	})
})
