package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// emit writes v in the selected structured format, or calls text for the
// human format.
func (s *session) emit(w io.Writer, v any, text func(io.Writer)) error {
	switch s.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

// recordView flattens AnalysisRecord so yaml.v3 does not nest the embedded result.
type recordView struct {
	ID                  *int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Score               int      `json:"score" yaml:"score"`
	Clarity             int      `json:"clarity" yaml:"clarity"`
	Emotion             int      `json:"emotion" yaml:"emotion"`
	Credibility         int      `json:"credibility" yaml:"credibility"`
	MarketEffectiveness int      `json:"market_effectiveness" yaml:"market_effectiveness"`
	Suggestion          string   `json:"suggestion" yaml:"suggestion"`
	Insights            []string `json:"insights" yaml:"insights"`
	Message             *string  `json:"message,omitempty" yaml:"message,omitempty"`
	URL                 *string  `json:"url,omitempty" yaml:"url,omitempty"`
	Tone                string   `json:"tone" yaml:"tone"`
	Persona             string   `json:"persona" yaml:"persona"`
	CreatedAt           string   `json:"created_at" yaml:"created_at"`
}

func newRecordView(r models.AnalysisRecord) recordView {
	insights := r.Insights
	if insights == nil {
		insights = []string{}
	}
	return recordView{
		ID:                  r.ID,
		Score:               r.Score,
		Clarity:             r.Clarity,
		Emotion:             r.Emotion,
		Credibility:         r.Credibility,
		MarketEffectiveness: r.MarketEffectiveness,
		Suggestion:          r.Suggestion,
		Insights:            insights,
		Message:             r.Input.Message,
		URL:                 r.Input.URL,
		Tone:                string(r.Tone),
		Persona:             string(r.Persona),
		CreatedAt:           r.CreatedAt,
	}
}

// originView says where a result came from.
type originView struct {
	Source  string `json:"source" yaml:"source"`
	SavedAt string `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
	AgeMs   *int64 `json:"age_ms,omitempty" yaml:"age_ms,omitempty"`
	Stale   bool   `json:"stale" yaml:"stale"`
	Legacy  bool   `json:"legacy,omitempty" yaml:"legacy,omitempty"`
}

func newOriginView(source resolve.Source, snap *models.Snapshot) originView {
	o := originView{Source: string(source)}
	if snap != nil {
		age := snap.AgeMs()
		o.SavedAt = snap.SavedAt.UTC().Format(time.RFC3339Nano)
		o.AgeMs = &age
		o.Stale = snap.Stale
		o.Legacy = snap.Legacy
	}
	return o
}

type latestView struct {
	originView `yaml:",inline"`
	Record     *recordView `json:"record" yaml:"record"`
}

type historyView struct {
	originView `yaml:",inline"`
	Records    []recordView `json:"records" yaml:"records"`
}

func newLatestView(res resolve.Resolution) latestView {
	v := latestView{originView: newOriginView(res.Source, res.Snapshot)}
	if !res.Empty() {
		rv := newRecordView(res.Record)
		v.Record = &rv
	}
	return v
}

func newHistoryView(res resolve.ListResolution) historyView {
	v := historyView{
		originView: newOriginView(res.Source, res.Snapshot),
		Records:    make([]recordView, 0, len(res.Records)),
	}
	for _, r := range res.Records {
		v.Records = append(v.Records, newRecordView(r))
	}
	return v
}

// ─── text rendering ─────────────────────────────────────────────────────────

func writeRecord(w io.Writer, r models.AnalysisRecord) {
	fmt.Fprintf(w, "%s  %s\n",
		titleStyle.Render("Market Resonance Score"),
		scoreStyle.Render(fmt.Sprintf("%d", r.Score)))
	fmt.Fprintf(w, "  %s %d  %s %d  %s %d  %s %d\n",
		labelStyle.Render("clarity"), r.Clarity,
		labelStyle.Render("emotion"), r.Emotion,
		labelStyle.Render("credibility"), r.Credibility,
		labelStyle.Render("market"), r.MarketEffectiveness)
	fmt.Fprintf(w, "  %s %s  %s %s\n",
		labelStyle.Render("tone"), r.Tone,
		labelStyle.Render("persona"), r.Persona)
	if subject, ok := r.Input.Subject(); ok {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("subject"), truncate(subject, 72))
	}
	if r.Suggestion != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("suggestion"), r.Suggestion)
	}
	for _, in := range r.Insights {
		fmt.Fprintf(w, "    - %s\n", in)
	}
}

func writeHistoryLine(w io.Writer, r models.AnalysisRecord) {
	subject, _ := r.Input.Subject()
	when := r.CreatedAt
	if t, ok := r.CreatedTime(); ok {
		when = t.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "%s  %s  %-12s %s\n",
		scoreStyle.Render(fmt.Sprintf("%3d", r.Score)),
		labelStyle.Render(when),
		r.Tone,
		truncate(subject, 56))
}

func writeOrigin(w io.Writer, source resolve.Source, snap *models.Snapshot) {
	switch source {
	case resolve.SourceLive:
		fmt.Fprintln(w, liveStyle.Render("source: live"))
	case resolve.SourceCache:
		line := "source: cached snapshot"
		if snap != nil {
			line += ", saved " + humanAge(snap.Age) + " ago"
		}
		if snap != nil && snap.Stale {
			fmt.Fprintln(w, staleStyle.Render(line+" (stale)"))
			return
		}
		fmt.Fprintln(w, labelStyle.Render(line))
	}
}

func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
