package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register adds the server-rendered pages to r
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)

	r.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/signup", h.SignupPage).Methods(http.MethodGet)
	r.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/confirm-email/{token}", h.ConfirmEmail).Methods(http.MethodGet)

	r.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/verify-email/resend", h.ResendVerification).Methods(http.MethodPost)

	// cadastrar must be registered before the {id} routes
	r.HandleFunc("/dashboard/processos", h.ProcessesPage).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/processos/cadastrar", h.NewProcessPage).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/processos/cadastrar", h.CreateProcess).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/processos/{id}", h.ProcessPage).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/processos/{id}/editar", h.EditProcessPage).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/processos/{id}/editar", h.UpdateProcess).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/processos/{id}/excluir", h.DeleteProcess).Methods(http.MethodPost)

	r.HandleFunc("/dashboard/settings", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, settingsURL, http.StatusSeeOther)
	}).Methods(http.MethodGet)
	r.HandleFunc(settingsURL, h.SettingsPage).Methods(http.MethodGet)
	r.HandleFunc(settingsURL, h.UpdateProfile).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/settings/password", h.ChangePassword).Methods(http.MethodPost)
}
