package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/varsilias/researchpaper/internal/buildinfo"
	"github.com/varsilias/researchpaper/internal/chat"
)

const (
	recentLimit = 3
	msgWait     = "Please wait for the current reply to finish."
)

var notices = map[string]string{
	"cleared": "All chat history has been cleared.",
	"empty":   "There is no chat history to clear.",
	"deleted": "Chat deleted.",
	"saved":   "Your research conversation has been saved to history.",
}

func RegisterRoutes(mux *chi.Mux, h *UI) {
	mux.Get("/", h.Dashboard)
	mux.Get("/chat", h.Chat)
	mux.Get("/history", h.History)
	mux.Get("/history/{id}", h.ViewSession)

	mux.Post("/ui/chat", h.ChatPost)
	mux.Post("/ui/chat/save", h.SaveChat)
	mux.Post("/ui/chat/reset", h.ResetChat)
	mux.Post("/ui/chat/new", h.NewChat)
	mux.Post("/ui/history/{id}/delete", h.DeleteSession)
	mux.Post("/ui/history/clear", h.ClearHistory)
	mux.Get("/ui/version-pill", h.VersionPill)
}

// Dashboard shows counts, open drafts and the most recent saved chats.
func (u *UI) Dashboard(w http.ResponseWriter, r *http.Request) {
	saved := u.history.History()
	messages := 0
	for _, c := range saved {
		messages += len(c.Messages)
	}
	recent := make([]SessionView, 0, recentLimit)
	for i := 0; i < len(saved) && i < recentLimit; i++ {
		recent = append(recent, sessionView(saved[i], false))
	}

	u.render(w, "dashboard.html", map[string]any{
		"Title":        "Dashboard",
		"SavedCount":   len(saved),
		"MessageCount": messages,
		"Drafts":       u.chat.Drafts().List(),
		"Recent":       recent,
	}, http.StatusOK)
}

// Chat shows a draft conversation: /chat?c=<id>. A missing or malformed id
// redirects to a fresh one. Viewing never registers a draft.
func (u *UI) Chat(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("c"))
	if !chat.ValidDraftID(id) {
		http.Redirect(w, r, chatURL(chat.NewDraftID()), http.StatusFound)
		return
	}

	data := map[string]any{"Title": "Chat", "DraftID": id}
	if conv, ok := u.chat.Drafts().Get(id); ok {
		data["History"] = u.messageViews(conv.Messages())
		data["LastError"] = conv.LastError()
	}
	u.render(w, "chat.html", data, http.StatusOK)
}

// ChatPost returns the user bubble, the reply (or error) bubble and an
// out-of-band update of the error alert.
func (u *UI) ChatPost(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	turn, ok, err := u.chat.Send(r.Context(), r.Form.Get("draft_id"), r.Form.Get("message"))
	switch {
	case errors.Is(err, chat.ErrBadDraftID):
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	case errors.Is(err, chat.ErrBusy):
		u.render(w, "alert.html", msgWait, http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf strings.Builder
	for _, m := range []MsgView{u.messageView(turn.User), u.messageView(turn.Reply)} {
		if err := u.tpl.ExecuteTemplate(&buf, "message.html", m); err != nil {
			u.errTpl(w, err)
			return
		}
	}
	if err := u.tpl.ExecuteTemplate(&buf, "alert.html", turn.Err); err != nil {
		u.errTpl(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(buf.String()))
}

// SaveChat stores the draft and sends the browser to the history page.
func (u *UI) SaveChat(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	id := r.Form.Get("draft_id")

	_, err := u.chat.Save(r.Context(), id)
	switch {
	case errors.Is(err, chat.ErrNothingToSave), errors.Is(err, chat.ErrBusy):
		msg := chat.NothingToSave + ": start a conversation before saving."
		if errors.Is(err, chat.ErrBusy) {
			msg = msgWait
		}
		u.chatNotice(w, r, id, msg)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/history?notice=saved")
}

// ResetChat empties the draft and reloads the chat page. A pending reply
// blocks the reset.
func (u *UI) ResetChat(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	id := r.Form.Get("draft_id")
	if !chat.ValidDraftID(id) {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := u.chat.Reset(id); err != nil {
		u.chatNotice(w, r, id, msgWait)
		return
	}
	redirect(w, r, chatURL(id))
}

// chatNotice shows msg above the chat input; plain form posts go back to the
// chat page.
func (u *UI) chatNotice(w http.ResponseWriter, r *http.Request, id, msg string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Retarget", "#chat-notice")
		w.Header().Set("HX-Reswap", "innerHTML")
		u.render(w, "notice.html", msg, http.StatusOK)
		return
	}
	http.Redirect(w, r, chatURL(id), http.StatusSeeOther)
}

// NewChat sends the browser to a fresh draft id.
func (u *UI) NewChat(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, chatURL(chat.NewDraftID()))
}

func (u *UI) History(w http.ResponseWriter, r *http.Request) {
	saved := u.history.History()
	views := make([]SessionView, 0, len(saved))
	for _, c := range saved {
		views = append(views, sessionView(c, true))
	}
	u.render(w, "history.html", map[string]any{
		"Title":    "History",
		"Sessions": views,
		"Notice":   notices[r.URL.Query().Get("notice")],
	}, http.StatusOK)
}

// ViewSession is a read-only view of one saved chat.
func (u *UI) ViewSession(w http.ResponseWriter, r *http.Request) {
	c, ok := u.history.GetChatByID(chi.URLParam(r, "id"))
	if !ok {
		u.render(w, "notfound.html", map[string]any{
			"Title":   "Not found",
			"Message": "This chat is not in your history. It may have been deleted.",
		}, http.StatusNotFound)
		return
	}
	u.render(w, "session.html", map[string]any{
		"Title":   c.Title,
		"Session": sessionView(c, false),
		"History": u.messageViews(c.Messages),
	}, http.StatusOK)
}

func (u *UI) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := u.history.DeleteChat(r.Context(), id); err != nil {
		u.log.Error("delete chat", "id", id, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/history?notice=deleted")
}

// ClearHistory refuses with a notice when there is nothing to clear.
func (u *UI) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if len(u.history.History()) == 0 {
		redirect(w, r, "/history?notice=empty")
		return
	}
	if err := u.history.ClearAllHistory(r.Context()); err != nil {
		u.log.Error("clear history", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/history?notice=cleared")
}

type versionVM struct {
	Version string
	Commit  string
	BuiltAt string
}

func (u *UI) VersionPill(w http.ResponseWriter, r *http.Request) {
	// Fragment response; avoid caching so rollouts show quickly
	w.Header().Set("Cache-Control", "no-store")

	data := versionVM{
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		BuiltAt: buildinfo.BuiltAt,
	}
	u.render(w, "version-pill.html", data, http.StatusOK)
}

func chatURL(id string) string {
	return "/chat?c=" + url.QueryEscape(id)
}
