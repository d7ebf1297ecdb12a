package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"whopays/internal/session"
	"whopays/internal/viewmodel"
	"whopays/views/pages"
)

type HomeHandler struct {
	store *session.Store
}

func NewHomeHandler(store *session.Store) *HomeHandler {
	return &HomeHandler{store: store}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/wheels", h.createWheel)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Title:        "Random Selector",
		DefaultTitle: session.DefaultTitle,
		MaxTitleLen:  session.MaxTitleLen,
	}))
}

func (h *HomeHandler) createWheel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := h.store.CreateSession(r.FormValue("title"))
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}
