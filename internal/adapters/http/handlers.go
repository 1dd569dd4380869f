package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/invoicescan/account-service/internal/application"
)

// Handler binds the HTTP surface to the application service. It holds no
// state of its own beyond the readiness probe.
type Handler struct {
	service *application.Service
	ready   func(ctx context.Context) error
}

// NewHandler constructs the HTTP handler. ready reports whether backing
// stores are reachable; nil means always ready.
func NewHandler(service *application.Service, ready func(ctx context.Context) error) *Handler {
	return &Handler{service: service, ready: ready}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logHTTPOperationError(ctx, operation, status, code, msg, err)
	writeError(w, status, code, msg)
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	const code = "VALIDATION_ERROR"
	msg := err.Error()
	logHTTPOperationError(ctx, operation, http.StatusBadRequest, code, msg, err)
	writeError(w, http.StatusBadRequest, code, msg)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req application.CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_account", err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_account", err)
		return
	}
	writeSuccess(w, http.StatusCreated, account)
}

func (h *Handler) verifyAccount(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_account", err)
		return
	}

	if err := h.service.VerifyAccount(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "verify_account", err)
		return
	}
	writeMessage(w, http.StatusOK, "Account verified successfully")
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req application.ResendVerificationRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "resend_verification", err)
		return
	}

	if err := h.service.ResendVerification(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "resend_verification", err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification code sent")
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req application.SignInRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "sign_in", err)
		return
	}

	res, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "sign_in", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req application.ResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reset_password", err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "reset_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}
