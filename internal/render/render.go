// Package render turns assistant answers into display fragments.
//
// Answer text is always HTML-escaped before any marker substitution, and the
// substitutions only ever insert fixed markup around text that is already
// escaped.
package render

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"regexp"
	"strings"

	"assistant-client/internal/model"
)

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

var (
	citationMarker = regexp.MustCompile(`\[(\d+)\]`)
	boldMarker     = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// FormatAnswer escapes answer and then expands [n] markers, **bold** markers
// and newlines.
func FormatAnswer(answer string) string {
	out := html.EscapeString(answer)
	out = citationMarker.ReplaceAllString(out, `<sup class="citation-ref">[$1]</sup>`)
	out = boldMarker.ReplaceAllString(out, `<strong>$1</strong>`)
	return strings.ReplaceAll(out, "\n", "<br>")
}

func ConfidenceTier(score float64) Tier {
	switch {
	case score >= 0.8:
		return TierHigh
	case score >= 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

// Percent formats a [0,1] fraction as a whole percentage.
func Percent(x float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(x*100)))
}

type Confidence struct {
	Tier    Tier
	Percent string
}

type CitationView struct {
	Number       int
	ProductName  string
	DocumentType string
	Section      string // " - a > b", empty when the hierarchy is empty
	Relevance    string
}

type Processing struct {
	ElapsedMs        int
	ContextUsed      int
	ContextAvailable int
}

// View is the display structure of one assistant answer. Text fields are
// raw; HTML() does the escaping.
type View struct {
	Answer     template.HTML
	Confidence *Confidence
	Citations  []CitationView
	Processing *Processing
}

// Response builds the View for resp.
func Response(resp *model.QueryResponse) View {
	v := View{
		Answer: template.HTML(FormatAnswer(resp.Answer)),
	}

	if resp.ConfidenceScore > 0 {
		v.Confidence = &Confidence{
			Tier:    ConfidenceTier(resp.ConfidenceScore),
			Percent: Percent(resp.ConfidenceScore),
		}
	}

	for i, c := range resp.Citations {
		cv := CitationView{
			Number:       i + 1,
			ProductName:  c.ProductName,
			DocumentType: c.DocumentType,
			Relevance:    Percent(c.RelevanceScore),
		}
		if len(c.SectionHierarchy) > 0 {
			cv.Section = " - " + strings.Join(c.SectionHierarchy, " > ")
		}
		v.Citations = append(v.Citations, cv)
	}

	if resp.ProcessingTimeMs != nil {
		p := &Processing{ElapsedMs: int(math.Round(*resp.ProcessingTimeMs))}
		if resp.ContextUsed != nil {
			p.ContextUsed = *resp.ContextUsed
		}
		if resp.ContextAvailable != nil {
			p.ContextAvailable = *resp.ContextAvailable
		}
		v.Processing = p
	}

	return v
}

// HTML assembles the chat-bubble fragment.
func (v View) HTML() template.HTML {
	var b strings.Builder
	b.WriteString(`<div class="answer">`)
	b.WriteString(string(v.Answer))
	b.WriteString(`</div>`)

	if v.Confidence != nil {
		fmt.Fprintf(&b, `<div class="message-meta"><span class="confidence-badge confidence-%s">Confidence: %s</span></div>`,
			v.Confidence.Tier, v.Confidence.Percent)
	}

	if len(v.Citations) > 0 {
		b.WriteString(`<div class="citations"><h6>Sources:</h6>`)
		for _, c := range v.Citations {
			fmt.Fprintf(&b, `<div class="citation-item">[%d] %s %s%s <span class="citation-relevance">%s</span></div>`,
				c.Number,
				html.EscapeString(c.ProductName),
				html.EscapeString(c.DocumentType),
				html.EscapeString(c.Section),
				c.Relevance)
		}
		b.WriteString(`</div>`)
	}

	if v.Processing != nil {
		fmt.Fprintf(&b, `<div class="message-meta"><small class="text-muted">%s</small></div>`,
			html.EscapeString(v.Processing.String()))
	}

	return template.HTML(b.String())
}

func (p Processing) String() string {
	return fmt.Sprintf("Processed in %dms | Used %d/%d sources", p.ElapsedMs, p.ContextUsed, p.ContextAvailable)
}

// Text renders an entry that carries no markup, such as user input or the
// generic error message.
func Text(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(html.EscapeString(s), "\n", "<br>"))
}
