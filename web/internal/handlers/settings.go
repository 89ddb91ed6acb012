package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/forms"
	"github.com/devilmonastery/processo/web/internal/proxy"
	"github.com/devilmonastery/processo/web/internal/session"
)

const settingsURL = "/dashboard/settings/general"

func (h *Handler) renderSettings(w http.ResponseWriter, r *http.Request, status int, profile *forms.ProfileForm, profileErrs, passwordErrs forms.FieldErrors) {
	data := h.newTemplateData(w, r, "settings")
	data["Profile"] = profile
	data["ProfileErrors"] = profileErrs
	data["PasswordErrors"] = passwordErrs
	h.renderStatus(w, status, "settings.html", data)
}

// SettingsPage shows the profile and password forms
func (h *Handler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	h.renderSettings(w, r, http.StatusOK, forms.ProfileFormFrom(user), forms.FieldErrors{}, forms.FieldErrors{})
}

// UpdateProfile saves the profile form
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Formulário inválido")
		return
	}

	form := forms.ParseProfileForm(r.PostForm)
	update, errs, err := form.Validate()
	if err != nil {
		logger.FromContext(r.Context(), h.log).Error("profile validation failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, proxy.MsgInternal)
		return
	}
	if errs.Any() {
		h.renderSettings(w, r, http.StatusUnprocessableEntity, form, errs, forms.FieldErrors{})
		return
	}

	if err := h.getClient(w, r).UpdateProfile(r.Context(), user.ID, *update); err != nil {
		if formError(err) {
			errs := forms.FieldErrors{forms.FormKey: upstreamMessage(err, "Não foi possível atualizar os dados")}
			h.renderSettings(w, r, http.StatusBadRequest, form, errs, forms.FieldErrors{})
			return
		}
		h.handleUpstreamError(w, r, err, "Usuário não encontrado")
		return
	}

	logger.FromContext(r.Context(), h.log).Info("profile updated", slog.String("user_id", user.ID))
	h.flash(w, r, session.FlashSuccess, "Dados atualizados com sucesso")
	http.Redirect(w, r, settingsURL, http.StatusSeeOther)
}

// ChangePassword changes the password; upstream error codes are translated
// with the same table the JSON endpoint uses
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Formulário inválido")
		return
	}

	form := forms.ParsePasswordForm(r.PostForm)
	change, errs, err := form.Validate()
	if err != nil {
		logger.FromContext(r.Context(), h.log).Error("password validation failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, proxy.MsgInternal)
		return
	}
	if errs.Any() {
		h.renderSettings(w, r, http.StatusUnprocessableEntity, forms.ProfileFormFrom(user), forms.FieldErrors{}, errs)
		return
	}

	if err := h.getClient(w, r).ChangePassword(r.Context(), *change); err != nil {
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) || (apiErr.Status == http.StatusUnauthorized && apiErr.Code != "INVALID_CURRENT_PASSWORD") {
			h.handleUpstreamError(w, r, err, "")
			return
		}
		m := proxy.PasswordCodes.Lookup(apiErr.Code)
		field := forms.FormKey
		switch m.Code {
		case "INVALID_CURRENT_PASSWORD":
			field = "currentPassword"
		case "SAME_PASSWORD":
			field = "newPassword"
		}
		logger.FromContext(r.Context(), h.log).Info("password change rejected",
			slog.String("user_id", user.ID),
			slog.Int("status", apiErr.Status),
			slog.String("code", apiErr.Code))
		h.renderSettings(w, r, m.Status, forms.ProfileFormFrom(user), forms.FieldErrors{}, forms.FieldErrors{field: m.Message})
		return
	}

	logger.FromContext(r.Context(), h.log).Info("password changed", slog.String("user_id", user.ID))
	h.flash(w, r, session.FlashSuccess, "Senha alterada com sucesso")
	http.Redirect(w, r, settingsURL, http.StatusSeeOther)
}
