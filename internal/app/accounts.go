package app

import (
	"errors"
	"net/http"

	"github.com/tempizhere/shortify/internal/middleware"
	"github.com/tempizhere/shortify/internal/models"
	"github.com/tempizhere/shortify/internal/service"
)

// HandleRegister обрабатывает POST-запросы на "/api/accounts/register"
func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	user, err := a.accounts.Register(r.Context(), req)
	if err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusCreated, user)
}

// HandleLogin обрабатывает POST-запросы на "/api/accounts/login" и выставляет сессионную куку
func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	token, _, err := a.accounts.Login(r.Context(), req)
	if err != nil {
		a.writeAccountError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, a.tokens.SessionTTL())
	a.writeJSONResponse(w, http.StatusOK, models.LoginResponse{Token: token})
}

// HandleLogout обрабатывает POST-запросы на "/api/accounts/logout"
func (a *App) HandleLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

// HandleVerifyEmail обрабатывает GET-запросы на "/api/accounts/verify-email?token="
func (a *App) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := a.accounts.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Email verified"})
}

// HandleResendVerification обрабатывает POST-запросы на "/api/accounts/resend-verification"
func (a *App) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.accountID(w, r)
	if !ok {
		return
	}
	if err := a.accounts.ResendVerification(r.Context(), userID); err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Verification email sent"})
}

// HandleForgotPassword обрабатывает POST-запросы на "/api/accounts/forgot-password".
// Ответ не зависит от того, зарегистрирован ли email.
func (a *App) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if err := a.accounts.RequestPasswordReset(r.Context(), req); err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "If the email is registered, a reset link has been sent",
	})
}

// HandleResetPassword обрабатывает POST-запросы на "/api/accounts/reset-password?token="
func (a *App) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if err := a.accounts.ResetPassword(r.Context(), r.URL.Query().Get("token"), req); err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Password updated"})
}

// HandleUpdateProfile обрабатывает PATCH-запросы на "/api/accounts/profile"
func (a *App) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.accountID(w, r)
	if !ok {
		return
	}
	var req models.ProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	user, err := a.accounts.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, user)
}

// HandleChangePassword обрабатывает PATCH-запросы на "/api/accounts/password"
func (a *App) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.accountID(w, r)
	if !ok {
		return
	}
	var req models.PasswordChangeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if err := a.accounts.ChangePassword(r.Context(), userID, req); err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Password updated"})
}

// HandleChangeEmail обрабатывает PATCH-запросы на "/api/accounts/email"
func (a *App) HandleChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.accountID(w, r)
	if !ok {
		return
	}
	var req models.EmailChangeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	user, err := a.accounts.ChangeEmail(r.Context(), userID, req)
	if err != nil {
		a.writeAccountError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, user)
}

// accountID возвращает идентификатор вошедшего пользователя; анонимная сессия получает 401
func (a *App) accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok || !middleware.IsAuthenticated(r) {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return "", false
	}
	return userID, true
}

func (a *App) writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email is already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrWrongPassword):
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, service.ErrNotFound):
		// сессия ссылается на анонимный идентификатор без учётной записи
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	default:
		a.internalError(w, "Account operation failed", err)
	}
}
