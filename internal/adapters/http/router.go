package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers the account-service HTTP routes behind the shared
// middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/account", handler.createAccount)
		r.Post("/account/verify", handler.verifyAccount)
		r.Post("/account/verify/resend", handler.resendVerification)
		r.Post("/account/reset-password", handler.resetPassword)
		r.Post("/sign-in", handler.signIn)
	})

	return r
}
