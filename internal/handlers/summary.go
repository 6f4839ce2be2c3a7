package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"oncohelper/internal/contextutil"
	"oncohelper/internal/tracker"
)

// SummaryHandler serves a visit summary page for an appointment: the
// appointment details, its linked questions, and its bookmarks rendered as
// HTML from a markdown document.
type SummaryHandler struct {
	svc      *tracker.Service
	parser   goldmark.Markdown
	template *template.Template
}

// summaryPageData holds template data for rendered summary pages.
type summaryPageData struct {
	Title   string
	Doctor  string
	When    string
	Content template.HTML
}

// NewSummaryHandler creates a new handler for serving visit summaries.
func NewSummaryHandler(svc *tracker.Service) *SummaryHandler {
	tmpl := template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 760px;
      line-height: 1.6;
      color: #1f2933;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #e4e7eb;
      padding-bottom: 1rem;
    }
    h1 {
      margin-top: 0;
      font-size: 1.8rem;
    }
    .meta {
      color: #616e7c;
      font-size: 0.95rem;
    }
    article h2 {
      margin-top: 1.5rem;
      font-size: 1.25rem;
    }
    article ul {
      padding-left: 1.25rem;
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: #f1f4f8;
      padding: 2px 5px;
      border-radius: 4px;
    }
    @media (max-width: 640px) {
      body {
        padding: 1rem;
      }
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.Doctor}} &middot; {{.When}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &SummaryHandler{
		svc: svc,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the appointment's visit summary as HTML.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	apt, err := h.svc.GetAppointment(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	markdown, err := h.buildMarkdown(r, apt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	htmlContent, err := h.renderMarkdown(markdown)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render summary", "appointment_id", id, "error", err)
		http.Error(w, "failed to render summary", http.StatusInternalServerError)
		return
	}

	pageData := summaryPageData{
		Title:   fmt.Sprintf("Visit on %s", apt.ScheduledAt.Format("January 2, 2006")),
		Doctor:  apt.Doctor,
		When:    apt.ScheduledAt.Format("Monday, January 2, 2006 at 3:04 PM"),
		Content: template.HTML(htmlContent),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute summary template", "appointment_id", id, "error", err)
	}
}

// buildMarkdown assembles the summary document: appointment details, the
// questions linked to the visit, and the recording bookmarks with the
// question each one answers.
func (h *SummaryHandler) buildMarkdown(r *http.Request, apt tracker.Appointment) ([]byte, error) {
	questions := make(map[int64]tracker.Question, len(apt.QuestionIDs))
	for _, qid := range apt.QuestionIDs {
		q, err := h.svc.GetQuestion(r.Context(), qid)
		if err != nil {
			return nil, err
		}
		questions[qid] = q
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Details\n\n")
	fmt.Fprintf(&b, "- **Doctor:** %s\n", apt.Doctor)
	if apt.Location != "" {
		fmt.Fprintf(&b, "- **Location:** %s\n", apt.Location)
	}
	if apt.HasRecording {
		fmt.Fprintf(&b, "- **Recording:** available\n")
	}

	if len(apt.QuestionIDs) > 0 {
		fmt.Fprintf(&b, "\n## Questions\n\n")
		for _, qid := range apt.QuestionIDs {
			q := questions[qid]
			fmt.Fprintf(&b, "- %s", q.Question)
			if q.Description != "" {
				fmt.Fprintf(&b, " &mdash; %s", q.Description)
			}
			b.WriteString("\n")
		}
	}

	if len(apt.Annotations) > 0 {
		fmt.Fprintf(&b, "\n## Bookmarks\n\n")
		for _, a := range apt.Annotations {
			fmt.Fprintf(&b, "- `%s`", formatTimestamp(a.Timestamp))
			if a.QuestionID != nil {
				if q, ok := questions[*a.QuestionID]; ok {
					fmt.Fprintf(&b, " %s", q.Question)
				}
			}
			b.WriteString("\n")
		}
	}

	return []byte(b.String()), nil
}

func (h *SummaryHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// formatTimestamp renders seconds as m:ss for display.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
