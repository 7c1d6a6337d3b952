package ui

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/varsilias/researchpaper/internal/chat"
	"github.com/varsilias/researchpaper/internal/session"
	"github.com/varsilias/researchpaper/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// History is the saved-chat store shown on the history pages.
type History interface {
	History() []session.ChatSession
	GetChatByID(id string) (session.ChatSession, bool)
	DeleteChat(ctx context.Context, id string) (bool, error)
	ClearAllHistory(ctx context.Context) error
}

type UI struct {
	log     *slog.Logger
	tpl     *template.Template
	chat    *chat.Controller
	history History
	md      goldmark.Markdown
	policy  *bluemonday.Policy
}

func New(log *slog.Logger, c *chat.Controller, h History) (*UI, error) {
	t, err := template.New("root").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	// inline styles come from the highlighter
	p.AllowAttrs("style").OnElements("span", "pre")

	return &UI{
		log:     log,
		tpl:     t,
		chat:    c,
		history: h,
		md:      md,
		policy:  p,
	}, nil
}

type MsgView struct {
	Role  string
	Label string
	HTML  template.HTML
	At    string
}

func (u *UI) messageView(m types.Message) MsgView {
	v := MsgView{Role: string(m.Role)}
	switch m.Role {
	case types.RoleUser:
		v.Label = "You"
	case types.RoleAssistant:
		v.Label = "Research assistant"
	case types.RoleSystem:
		v.Label = "System"
	default:
		v.Label = "Error"
		// error bubbles are fixed text, not markdown
		v.HTML = template.HTML(template.HTMLEscapeString(m.Content))
		return v
	}
	v.HTML = u.mdHTML(m.Content)
	return v
}

func (u *UI) messageViews(msgs []types.Message) []MsgView {
	out := make([]MsgView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, u.messageView(m))
	}
	return out
}

// SessionView is a saved chat prepared for the history pages.
type SessionView struct {
	ID           string
	Title        string
	Preview      string
	Tags         []string
	Date         string
	MessageCount int
	Deletable    bool
}

func sessionView(c session.ChatSession, deletable bool) SessionView {
	return SessionView{
		ID:           c.ID,
		Title:        c.Title,
		Preview:      c.Preview,
		Tags:         c.Tags,
		Date:         displayDate(c.Timestamp),
		MessageCount: len(c.Messages),
		Deletable:    deletable,
	}
}

func displayDate(ts string) string {
	t, err := time.Parse(session.TimestampLayout, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func (u *UI) mdHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := u.md.Convert([]byte(src), &buf); err != nil {
		u.log.Warn("markdown convert", "err", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(u.policy.SanitizeBytes(buf.Bytes()))
}

func (u *UI) render(w http.ResponseWriter, name string, data any, status int) {
	var buf bytes.Buffer
	if err := u.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		u.errTpl(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (u *UI) errTpl(w http.ResponseWriter, err error) {
	u.log.Error("template execute", "err", err)
	http.Error(w, "template error", http.StatusInternalServerError)
}

// redirect sends HTMX clients an HX-Redirect and everyone else a 303.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
