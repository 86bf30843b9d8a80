// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_boost/internal/app"
	"review_boost/internal/domain"
)

type Handlers struct {
	Reviews *app.ReviewService
	Demo    *app.DemoService
	Q       *app.QueryService
}

type problem struct {
	Type          string             `json:"type"`
	Title         string             `json:"title"`
	Status        int                `json:"status"`
	Detail        string             `json:"detail,omitempty"`
	Notifications []notificationView `json:"notifications,omitempty"`
}

type notificationView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

type draftView struct {
	ID               string                  `json:"id"`
	BusinessName     string                  `json:"business_name"`
	Text             string                  `json:"text"`
	State            string                  `json:"state"`
	ComplaintFlagged bool                    `json:"complaint_flagged"`
	Receipt          *domain.ReceiptAnalysis `json:"receipt,omitempty"`
	ReceiptLines     []string                `json:"receipt_lines,omitempty"`
	PhotoURL         string                  `json:"photo_url,omitempty"`
	UniqueCode       string                  `json:"unique_code,omitempty"`
}

type actionView struct {
	Draft         draftView          `json:"draft"`
	Notifications []notificationView `json:"notifications"`
}

type shareView struct {
	ClipboardText string             `json:"clipboard_text"`
	OpenURL       string             `json:"open_url"`
	Notifications []notificationView `json:"notifications"`
}

type preferencesView struct {
	Preferences domain.DemoPreferences `json:"preferences"`
	FromStore   bool                   `json:"from_store"`
}

type demoPageView struct {
	ID             int64   `json:"id"`
	RestaurantName string  `json:"restaurant_name"`
	GoogleMapsURL  string  `json:"google_maps_url"`
	ContactEmail   *string `json:"contact_email"`
	Slug           string  `json:"slug"`
}

type createdPageView struct {
	Page          demoPageView       `json:"page"`
	Path          string             `json:"path"`
	URL           string             `json:"url"`
	ClipboardText string             `json:"clipboard_text"`
	Notifications []notificationView `json:"notifications"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/drafts", func(r chi.Router) {
		r.Post("/", h.createDraft)
		r.Get("/{id}", h.getDraft)
		r.Delete("/{id}", h.deleteDraft)
		r.Put("/{id}/text", h.editText)
		r.Put("/{id}/receipt", h.attachReceipt)
		r.Get("/{id}/receipt", h.renderReceipt)
		r.Post("/{id}/refine", h.refine)
		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/share", h.share)
		r.Post("/{id}/survey", h.survey)
	})

	s.mux.Get("/v1/demo/preferences", h.loadPreferences)
	s.mux.Put("/v1/demo/preferences", h.savePreferences)
	s.mux.Post("/v1/demo/pages", h.createDemoPage)
	s.mux.Get("/v1/demo/pages/{slug}", h.getDemoPage)
}

/********** encoding helpers **********/

func writeProblem(w http.ResponseWriter, status int, title, detail string, notes ...domain.Notification) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: title, Status: status, Detail: detail}
	if len(notes) > 0 {
		p.Notifications = toNotes(notes)
	}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps a service error onto a problem response.
func writeError(w http.ResponseWriter, err error, notes []domain.Notification) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), notes...)
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error(), notes...)
	case errors.Is(err, domain.ErrBusy):
		writeProblem(w, http.StatusConflict, "Request In Flight", err.Error(), notes...)
	case errors.Is(err, domain.ErrInvalidState):
		writeProblem(w, http.StatusConflict, "Invalid State", err.Error(), notes...)
	case errors.Is(err, domain.ErrService):
		writeProblem(w, http.StatusBadGateway, "Service Error", "refinement service rejected the review", notes...)
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrConflict):
		// driver and network details stay in the logs
		writeProblem(w, http.StatusBadGateway, "Upstream Failure", "request to a backing service failed", notes...)
	default:
		log.Error().Err(err).Msg("unmapped handler error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "", notes...)
	}
}

// decodeBody reads an optional JSON body; an empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func toNotes(ns []domain.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationView{Title: n.Title, Description: n.Description, Variant: string(n.Variant)})
	}
	return out
}

func toDraftView(d domain.ReviewDraft) draftView {
	return draftView{
		ID:               d.ID,
		BusinessName:     d.BusinessName,
		Text:             d.Text,
		State:            d.State.String(),
		ComplaintFlagged: d.ComplaintFlagged,
		Receipt:          d.Receipt,
		ReceiptLines:     app.RenderReceipt(d.Receipt),
		PhotoURL:         d.PhotoURL,
		UniqueCode:       d.UniqueCode,
	}
}

func toPageView(p domain.DemoPage) demoPageView {
	return demoPageView{ID: p.ID, RestaurantName: p.RestaurantName, GoogleMapsURL: p.GoogleMapsURL, ContactEmail: p.ContactEmail, Slug: p.Slug}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

/********** drafts **********/

func (h *Handlers) createDraft(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BusinessName string `json:"business_name"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	d := h.Reviews.NewDraft(strings.TrimSpace(in.BusinessName))
	writeJSON(w, http.StatusCreated, toDraftView(d))
}

func (h *Handlers) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reviews.Draft(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toDraftView(d))
}

func (h *Handlers) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Reviews.Discard(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) editText(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON with a text field")
		return
	}
	d, err := h.Reviews.Edit(chi.URLParam(r, "id"), in.Text)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toDraftView(d))
}

// attachReceipt takes the uploader callback: {"analysis": {...}, "photo_url": "..."}.
func (h *Handlers) attachReceipt(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be a JSON object")
		return
	}
	photo, _ := in["photo_url"].(string)
	ra := app.MapReceiptAnalysis(in)
	if ra == nil && photo == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", "no receipt analysis or photo url in body")
		return
	}
	d, err := h.Reviews.AttachReceipt(chi.URLParam(r, "id"), ra, photo)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toDraftView(d))
}

func (h *Handlers) renderReceipt(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reviews.Draft(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	lines := app.RenderReceipt(d.Receipt)
	if lines == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "no receipt attached")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		log.Error().Err(err).Msg("failed to write receipt body")
	}
}

func (h *Handlers) writeAction(w http.ResponseWriter, res app.ActionResult, err error) {
	if err != nil {
		writeError(w, err, res.Notifications)
		return
	}
	notes := res.Notifications
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, actionView{Draft: toDraftView(res.Draft), Notifications: toNotes(notes)})
}

// refine and submit outlive a disconnected client: the draft must leave its
// in-flight state whatever happens to the caller.
func (h *Handlers) refine(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reviews.Refine(context.WithoutCancel(r.Context()), chi.URLParam(r, "id"))
	h.writeAction(w, res, err)
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reviews.Submit(context.WithoutCancel(r.Context()), chi.URLParam(r, "id"))
	h.writeAction(w, res, err)
}

func (h *Handlers) survey(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reviews.TakeSurvey(r.Context(), chi.URLParam(r, "id"))
	h.writeAction(w, res, err)
}

func (h *Handlers) share(w http.ResponseWriter, r *http.Request) {
	act, err := h.Reviews.Share(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, act.Notifications)
		return
	}
	writeJSON(w, http.StatusOK, shareView{ClipboardText: act.ClipboardText, OpenURL: act.OpenURL, Notifications: toNotes(act.Notifications)})
}

/********** demo **********/

func (h *Handlers) loadPreferences(w http.ResponseWriter, r *http.Request) {
	lp := h.Demo.LoadPreferences(r.Context())
	writeJSON(w, http.StatusOK, preferencesView{Preferences: lp.Preferences, FromStore: lp.FromStore})
}

func (h *Handlers) savePreferences(w http.ResponseWriter, r *http.Request) {
	var in domain.DemoPreferences
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON preferences")
		return
	}
	notes, err := h.Demo.SavePreferences(r.Context(), in)
	if err != nil {
		writeError(w, err, notes)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": in, "notifications": toNotes(notes)})
}

// createDemoPage uses the body's preferences when given, else the cached ones.
func (h *Handlers) createDemoPage(w http.ResponseWriter, r *http.Request) {
	var in *domain.DemoPreferences
	if err := decodeBody(r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON preferences or empty")
		return
	}
	out, err := h.Demo.CreateDemoPage(r.Context(), in)
	if err != nil {
		writeError(w, err, out.Notifications)
		return
	}
	w.Header().Set("Location", "/v1/demo/pages/"+out.Page.Slug)
	writeJSON(w, http.StatusCreated, createdPageView{
		Page:          toPageView(out.Page),
		Path:          out.Path,
		URL:           out.URL,
		ClipboardText: out.URL,
		Notifications: toNotes(out.Notifications),
	})
}

func (h *Handlers) getDemoPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.Q.GetDemoPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err, nil)
		return
	}

	etag, body := calcETagAndBody(toPageView(p))
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getDemoPage body")
	}
}
