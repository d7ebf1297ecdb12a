package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"whopays/internal/session"
	"whopays/internal/viewmodel"
	"whopays/internal/wheel"
	"whopays/views/components"
	"whopays/views/pages"
)

// asyncHeader marks requests sent by wheel.js; they get 204 instead of a redirect.
const asyncHeader = "X-Requested-With"

var errorCodes = map[error]string{
	session.ErrEmptyName:          "empty",
	session.ErrMultipleNames:      "multiple",
	session.ErrTooFewParticipants: "few",
	session.ErrNotInSetup:         "locked",
	session.ErrUnknownPreset:      "preset",
}

var presetLabels = []viewmodel.PresetOption{
	{Key: "sample", Label: "Add Sample Names"},
	{Key: "food", Label: "Add Food Options"},
}

type WheelHandler struct {
	store   *session.Store
	baseURL string
	logger  *slog.Logger
}

// NewWheelHandler serves wheel pages. baseURL, when set, is used for share
// links instead of the request host.
func NewWheelHandler(store *session.Store, baseURL string, logger *slog.Logger) *WheelHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WheelHandler{store: store, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), logger: logger}
}

// RegisterRoutes mounts the page and action routes. The stream is
// registered separately so it can skip request timeouts.
func (h *WheelHandler) RegisterRoutes(r chi.Router) {
	r.Get("/wheels/{id}", h.spinnerPage)
	r.Get("/wheels/{id}/setup", h.setupPage)
	r.Post("/wheels/{id}/title", h.setTitle)
	r.Post("/wheels/{id}/participants", h.addParticipant)
	r.Post("/wheels/{id}/participants/clear", h.clearParticipants)
	r.Post("/wheels/{id}/participants/preset", h.addPreset)
	r.Post("/wheels/{id}/participants/{pid}/delete", h.removeParticipant)
	r.Post("/wheels/{id}/start", h.startSpinner)
	r.Post("/wheels/{id}/spin", h.spin)
	r.Post("/wheels/{id}/again", h.spinAgain)
	r.Post("/wheels/{id}/done", h.dismiss)
	r.Post("/wheels/{id}/back", h.back)
	r.Post("/wheels/{id}/reset", h.reset)
	r.Get("/wheels/{id}/controls", h.controlsFragment)
	r.Get("/wheels/{id}/result", h.resultFragment)
	r.Get("/wheels/{id}/history", h.historyFragment)
}

// RegisterStream mounts the long-lived SSE route.
func (h *WheelHandler) RegisterStream(r chi.Router) {
	r.Get("/wheels/{id}/stream", h.stream)
}

func (h *WheelHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := h.store.GetSession(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return sess, true
}

func (h *WheelHandler) setupPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	if snap.Phase == session.PhaseSpinner {
		http.Redirect(w, r, spinnerURL(snap.ID), http.StatusSeeOther)
		return
	}
	data := buildSetupPage(snap)
	q := r.URL.Query()
	data.Error = errorMessage(q.Get("error"))
	if name, err := session.NormalizeName(q.Get("confirm")); err == nil {
		data.ConfirmName = name
	}
	render(w, r, pages.SetupPage(data))
}

func (h *WheelHandler) spinnerPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	if snap.Phase != session.PhaseSpinner {
		http.Redirect(w, r, setupURL(snap.ID), http.StatusSeeOther)
		return
	}
	render(w, r, pages.SpinnerPage(viewmodel.SpinnerPage{
		Title:    snap.Title,
		WheelID:  snap.ID,
		ShareURL: h.shareURL(r, snap.ID),
		Wheel:    viewmodel.BuildWheel(snap.Participants, snap.Wheel.Rotation),
		Controls: buildControls(snap),
		Result:   buildResult(snap),
		History:  buildHistory(snap),
	}))
}

func (h *WheelHandler) setTitle(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess.SetTitle(r.FormValue("title"))
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) addParticipant(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	p, err := sess.AddParticipant(r.FormValue("name"), r.FormValue("confirm") != "")
	if errors.Is(err, session.ErrDuplicateName) {
		target := setupURL(sess.ID) + "?" + url.Values{"confirm": {p.Name}}.Encode()
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if err != nil {
		h.redirectError(w, r, sess.ID, err)
		return
	}
	h.logger.Debug("participant added", "session", sess.ID, "participant", p.ID)
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) addPreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := sess.AddPreset(r.FormValue("preset")); err != nil {
		h.redirectError(w, r, sess.ID, err)
		return
	}
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) removeParticipant(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.RemoveParticipant(chi.URLParam(r, "pid"))
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) clearParticipants(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.ClearParticipants()
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) startSpinner(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.StartSpinner(); err != nil {
		h.redirectError(w, r, sess.ID, err)
		return
	}
	http.Redirect(w, r, spinnerURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) spin(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !sess.Spin() {
		h.logger.Debug("spin declined", "session", sess.ID)
	}
	h.finishAction(w, r, spinnerURL(sess.ID))
}

func (h *WheelHandler) spinAgain(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !sess.SpinAgain() {
		h.logger.Debug("spin again declined", "session", sess.ID)
	}
	h.finishAction(w, r, spinnerURL(sess.ID))
}

func (h *WheelHandler) dismiss(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.DismissResult()
	h.finishAction(w, r, spinnerURL(sess.ID))
}

func (h *WheelHandler) back(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.BackToSetup()
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	h.logger.Info("session reset", "session", sess.ID)
	http.Redirect(w, r, setupURL(sess.ID), http.StatusSeeOther)
}

func (h *WheelHandler) controlsFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.ControlsFragment(buildControls(sess.Snapshot())))
}

func (h *WheelHandler) resultFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.ResultFragment(buildResult(sess.Snapshot())))
}

func (h *WheelHandler) historyFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.HistoryFragment(buildHistory(sess.Snapshot())))
}

func (h *WheelHandler) stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	hub, ok := h.store.Broadcaster(sess.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendSnapshot := func(includeControls, includeResult, includeHistory bool) {
		snap := sess.Snapshot()
		if includeControls {
			writeSSE(w, "controls", renderToString(r, components.ControlsFragment(buildControls(snap))))
		}
		if includeResult {
			writeSSE(w, "result", renderToString(r, components.ResultFragment(buildResult(snap))))
		}
		if includeHistory {
			writeSSE(w, "history", renderToString(r, components.HistoryFragment(buildHistory(snap))))
		}
		flusher.Flush()
	}

	// A page loaded mid-spin joins the animation where it currently is.
	if payload, ok := inFlightSpin(sess.Snapshot(), h.store.Now()); ok {
		writeSSE(w, session.EventSpin, payload)
	}
	sendSnapshot(true, true, true)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			switch event.Name {
			case session.EventSpin:
				writeSSE(w, session.EventSpin, event.Data)
				sendSnapshot(true, false, false)
			case session.EventResult:
				sendSnapshot(true, true, true)
			case session.EventState:
				writeSSE(w, session.EventState, phaseURL(sess.Snapshot()))
				flusher.Flush()
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func (h *WheelHandler) redirectError(w http.ResponseWriter, r *http.Request, id string, err error) {
	code, known := errorCodes[err]
	if !known {
		h.logger.Error("setup action failed", "session", id, "error", err)
		http.Error(w, "failed to update wheel", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, setupURL(id)+"?error="+code, http.StatusSeeOther)
}

func (h *WheelHandler) finishAction(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get(asyncHeader) != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func errorMessage(code string) string {
	for err, c := range errorCodes {
		if c == code {
			return err.Error()
		}
	}
	return ""
}

func (h *WheelHandler) shareURL(r *http.Request, id string) string {
	if h.baseURL != "" {
		return h.baseURL + spinnerURL(id)
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + spinnerURL(id)
}

func setupURL(id string) string   { return "/wheels/" + id + "/setup" }
func spinnerURL(id string) string { return "/wheels/" + id }

func phaseURL(snap session.Snapshot) string {
	if snap.Phase == session.PhaseSpinner {
		return spinnerURL(snap.ID)
	}
	return setupURL(snap.ID)
}

// inFlightSpin describes the running spin for a viewer joining part way
// through. The full curve is sent with the time already elapsed so the
// browser resumes at the current angle instead of replaying from the start.
func inFlightSpin(snap session.Snapshot, now time.Time) (string, bool) {
	sp := snap.Wheel.Spin
	if snap.Wheel.State != wheel.Spinning || sp == nil {
		return "", false
	}
	elapsed := now.Sub(sp.StartedAt)
	if elapsed >= sp.Duration {
		return "", false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	payload, err := json.Marshal(session.SpinPayload{
		From:       sp.From,
		To:         sp.To,
		DurationMs: sp.Duration.Milliseconds(),
		ElapsedMs:  elapsed.Milliseconds(),
	})
	if err != nil {
		return "", false
	}
	return string(payload), true
}

func buildSetupPage(snap session.Snapshot) viewmodel.SetupPage {
	items := make([]viewmodel.ParticipantItem, 0, len(snap.Participants))
	for _, p := range snap.Participants {
		items = append(items, viewmodel.ParticipantItem{ID: p.ID, Name: p.Name})
	}
	return viewmodel.SetupPage{
		Title:           snap.Title,
		WheelID:         snap.ID,
		Participants:    items,
		Presets:         presetLabels,
		CanStart:        snap.CanStart(),
		MinParticipants: session.MinParticipants,
		MaxNameLen:      session.MaxNameLen,
		MaxTitleLen:     session.MaxTitleLen,
	}
}

func buildControls(snap session.Snapshot) viewmodel.ControlsFragment {
	return viewmodel.ControlsFragment{
		WheelID:  snap.ID,
		Count:    len(snap.Participants),
		Spinning: snap.Spinning(),
	}
}

func buildResult(snap session.Snapshot) viewmodel.ResultFragment {
	data := viewmodel.ResultFragment{WheelID: snap.ID}
	if snap.Winner != nil {
		data.Open = true
		data.Winner = snap.Winner.Name
	}
	return data
}

func buildHistory(snap session.Snapshot) viewmodel.HistoryFragment {
	entries := make([]viewmodel.HistoryEntry, 0, len(snap.History))
	for i := len(snap.History) - 1; i >= 0; i-- {
		res := snap.History[i]
		entries = append(entries, viewmodel.HistoryEntry{
			Seq:  res.Seq,
			Name: res.Winner.Name,
			At:   res.At.Format("15:04"),
		})
	}
	return viewmodel.HistoryFragment{Entries: entries}
}
