package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/processo/internal/domain/entities"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/forms"
	"github.com/devilmonastery/processo/web/internal/session"
)

const (
	msgProcessNotFound = "Processo não encontrado"
	msgProcessSave     = "Não foi possível salvar o processo"
)

func processURL(id string) string {
	return "/dashboard/processos/" + id
}

// ProcessesPage lists cases, filtered by the q and tag query parameters
func (h *Handler) ProcessesPage(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	tag := r.URL.Query().Get("tag")

	processes, err := h.getClient(w, r).ListProcesses(r.Context())
	if err != nil {
		h.handleUpstreamError(w, r, err, "")
		return
	}
	sortByCreated(processes)

	filtered := make([]entities.Process, 0, len(processes))
	for _, p := range processes {
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		if !p.Matches(query) {
			continue
		}
		filtered = append(filtered, p)
	}

	data := h.newTemplateData(w, r, "processes")
	data["Processes"] = filtered
	data["Total"] = len(processes)
	data["Query"] = query
	data["Tag"] = tag
	data["Tags"] = entities.ProcessTags
	h.renderTemplate(w, "processes.html", data)
}

// ProcessPage shows one case
func (h *Handler) ProcessPage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.getClient(w, r).GetProcess(r.Context(), id)
	if err != nil {
		h.handleUpstreamError(w, r, err, msgProcessNotFound)
		return
	}

	data := h.newTemplateData(w, r, "processes")
	data["Process"] = p
	h.renderTemplate(w, "process_detail.html", data)
}

func (h *Handler) renderProcessForm(w http.ResponseWriter, r *http.Request, status int, form *forms.ProcessForm, errs forms.FieldErrors, action string, editing bool) {
	data := h.newTemplateData(w, r, "processes")
	data["Form"] = form
	data["Errors"] = errs
	data["Action"] = action
	data["Editing"] = editing
	data["Tags"] = entities.ProcessTags
	data["AccessLevels"] = entities.AccessLevels
	h.renderStatus(w, status, "process_form.html", data)
}

// NewProcessPage shows the empty create form
func (h *Handler) NewProcessPage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	h.renderProcessForm(w, r, http.StatusOK, forms.NewProcessForm(user.ID), forms.FieldErrors{}, r.URL.Path, false)
}

// CreateProcess validates the posted form and creates the case upstream
func (h *Handler) CreateProcess(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	form, p, ok := h.readProcessForm(w, r, r.URL.Path, false)
	if !ok {
		return
	}
	p.UserID = user.ID

	created, err := h.getClient(w, r).CreateProcess(r.Context(), p)
	if err != nil {
		if formError(err) {
			h.renderProcessForm(w, r, http.StatusBadRequest, form, forms.FieldErrors{forms.FormKey: upstreamMessage(err, msgProcessSave)}, r.URL.Path, false)
			return
		}
		h.handleUpstreamError(w, r, err, "")
		return
	}

	logger.FromContext(r.Context(), h.log).Info("case created",
		slog.String("process_id", created.ID),
		slog.String("folder", p.Folder))
	h.flash(w, r, session.FlashSuccess, "Processo cadastrado com sucesso")
	if created.ID == "" {
		http.Redirect(w, r, "/dashboard/processos", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, processURL(created.ID), http.StatusSeeOther)
}

// EditProcessPage shows the edit form prefilled from the stored case
func (h *Handler) EditProcessPage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.getClient(w, r).GetProcess(r.Context(), id)
	if err != nil {
		h.handleUpstreamError(w, r, err, msgProcessNotFound)
		return
	}
	h.renderProcessForm(w, r, http.StatusOK, forms.ProcessFormFrom(p), forms.FieldErrors{}, r.URL.Path, true)
}

// UpdateProcess validates the posted form and replaces the case upstream
func (h *Handler) UpdateProcess(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	form, p, ok := h.readProcessForm(w, r, r.URL.Path, true)
	if !ok {
		return
	}

	if _, err := h.getClient(w, r).UpdateProcess(r.Context(), id, p); err != nil {
		if formError(err) {
			h.renderProcessForm(w, r, http.StatusBadRequest, form, forms.FieldErrors{forms.FormKey: upstreamMessage(err, msgProcessSave)}, r.URL.Path, true)
			return
		}
		h.handleUpstreamError(w, r, err, msgProcessNotFound)
		return
	}

	logger.FromContext(r.Context(), h.log).Info("case updated", slog.String("process_id", id))
	h.flash(w, r, session.FlashSuccess, "Processo atualizado com sucesso")
	http.Redirect(w, r, processURL(id), http.StatusSeeOther)
}

// DeleteProcess removes the case and returns to the list
func (h *Handler) DeleteProcess(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.getClient(w, r).DeleteProcess(r.Context(), id); err != nil {
		h.handleUpstreamError(w, r, err, msgProcessNotFound)
		return
	}

	logger.FromContext(r.Context(), h.log).Info("case deleted", slog.String("process_id", id))
	h.flash(w, r, session.FlashSuccess, "Processo excluído com sucesso")
	http.Redirect(w, r, "/dashboard/processos", http.StatusSeeOther)
}

// readProcessForm parses and validates the case form. On failure it renders
// the form again and ok is false.
func (h *Handler) readProcessForm(w http.ResponseWriter, r *http.Request, action string, editing bool) (*forms.ProcessForm, *entities.Process, bool) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Formulário inválido")
		return nil, nil, false
	}
	form := forms.ParseProcessForm(r.PostForm)
	if !editing {
		if user := h.currentUser(r); user != nil {
			form.UserID = user.ID
		}
	}

	p, errs, err := form.Validate()
	if err != nil {
		logger.FromContext(r.Context(), h.log).Error("case validation failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, msgProcessSave)
		return nil, nil, false
	}
	if errs.Any() {
		if len(form.Clients) == 0 {
			form.Clients = []entities.Party{{}}
		}
		h.renderProcessForm(w, r, http.StatusUnprocessableEntity, form, errs, action, editing)
		return nil, nil, false
	}
	return form, p, true
}
