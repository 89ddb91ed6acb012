package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/domain/entities"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/forms"
	"github.com/devilmonastery/processo/web/internal/proxy"
	"github.com/devilmonastery/processo/web/internal/session"
)

const (
	msgInvalidCredentials = "Email ou senha inválidos"
	msgSignInFailed       = "Não foi possível entrar. Tente novamente."
	msgSignUpFailed       = "Não foi possível criar a conta. Tente novamente."
	msgConfirmFailed      = "Não foi possível confirmar o email. O link pode ter expirado."
)

// Root sends visitors to the dashboard; the gate handles anonymous ones
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// LoginPage shows the sign-in form
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, &forms.SignInForm{}, forms.FieldErrors{})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form *forms.SignInForm, errs forms.FieldErrors) {
	data := h.newPublicTemplateData(w, r, "login")
	data["Form"] = form
	data["Errors"] = errs
	data["Reason"] = r.URL.Query().Get("reason")
	h.renderStatus(w, status, "login.html", data)
}

// Login signs in upstream and stores the session token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, &forms.SignInForm{}, forms.FieldErrors{forms.FormKey: msgSignInFailed})
		return
	}
	form := forms.ParseSignInForm(r.PostForm)
	creds, errs, err := form.Validate()
	if err != nil {
		log.Error("sign-in validation failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, msgSignInFailed)
		return
	}
	if errs.Any() {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	resp, err := h.client.SignIn(r.Context(), *creds)
	if err != nil {
		log.Info("sign-in rejected", slog.String("error", err.Error()))
		status, msg := http.StatusBadGateway, msgSignInFailed
		var apiErr *client.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
			status, msg = http.StatusUnauthorized, upstreamMessage(err, msgInvalidCredentials)
		case client.IsTimeout(err):
			status, msg = http.StatusGatewayTimeout, proxy.MsgTimeout
		}
		form.Password = ""
		h.renderLogin(w, r, status, form, forms.FieldErrors{forms.FormKey: msg})
		return
	}

	h.sessionManager.SetToken(w, resp.Token)
	log.Info("user signed in", slog.String("email", creds.Email))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// SignupPage shows the registration form
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.renderSignup(w, r, http.StatusOK, &forms.SignUpForm{}, forms.FieldErrors{})
}

func (h *Handler) renderSignup(w http.ResponseWriter, r *http.Request, status int, form *forms.SignUpForm, errs forms.FieldErrors) {
	data := h.newPublicTemplateData(w, r, "signup")
	data["Form"] = form
	data["Errors"] = errs
	h.renderStatus(w, status, "signup.html", data)
}

// Signup creates the account upstream and then signs in with it
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	if err := r.ParseForm(); err != nil {
		h.renderSignup(w, r, http.StatusBadRequest, &forms.SignUpForm{}, forms.FieldErrors{forms.FormKey: msgSignUpFailed})
		return
	}
	form := forms.ParseSignUpForm(r.PostForm)
	reg, errs, err := form.Validate()
	if err != nil {
		log.Error("sign-up validation failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, msgSignUpFailed)
		return
	}
	if errs.Any() {
		form.Password, form.ConfirmPassword = "", ""
		h.renderSignup(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	if err := h.client.SignUp(r.Context(), *reg); err != nil {
		log.Info("sign-up rejected", slog.String("error", err.Error()))
		form.Password, form.ConfirmPassword = "", ""
		h.renderSignup(w, r, http.StatusBadRequest, form, forms.FieldErrors{forms.FormKey: upstreamMessage(err, msgSignUpFailed)})
		return
	}

	resp, err := h.client.SignIn(r.Context(), entities.Credentials{Email: reg.Email, Password: reg.Password})
	if err != nil {
		log.Warn("sign-in after sign-up failed", slog.String("error", err.Error()))
		h.flash(w, r, session.FlashSuccess, "Conta criada. Entre com seu email e senha.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.sessionManager.SetToken(w, resp.Token)
	h.flash(w, r, session.FlashSuccess, "Conta criada com sucesso. Enviamos um email de verificação.")
	log.Info("user signed up", slog.String("email", reg.Email))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout clears the session and returns to the login page
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context(), h.log).Info("user logged out")
	h.flash(w, r, session.FlashInfo, "Você saiu da sua conta")
	h.clearSessionAndRedirect(w, r, "/login")
}

// ConfirmEmail confirms the address behind the token from the verification mail
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	data := h.newTemplateData(w, r, "")
	status := http.StatusOK
	if err := h.client.VerifyEmail(r.Context(), token); err != nil {
		logger.FromContext(r.Context(), h.log).Info("email confirmation failed", slog.String("error", err.Error()))
		status = http.StatusBadRequest
		data["Success"] = false
		data["Message"] = upstreamMessage(err, msgConfirmFailed)
	} else {
		data["Success"] = true
	}
	h.renderStatus(w, status, "confirm_email.html", data)
}
