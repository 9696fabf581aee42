package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codezelat/pitchlens/pkg/models"
)

// ValidationError lists input problems by field.
type ValidationError map[string][]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, strings.Join(e[f], "; "))
	}
	return "invalid analysis request: " + strings.Join(parts, "; ")
}

func (e ValidationError) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// AnalyzeInput is an analysis request as a user typed it. Tone wins over
// ToneSlider when both are set.
type AnalyzeInput struct {
	Message    *string `json:"message"`
	URL        *string `json:"url"`
	Tone       string  `json:"tone"`
	ToneSlider *int    `json:"tone_slider"`
	Persona    string  `json:"persona"`
}

var (
	validTones = map[models.Tone]bool{
		models.ToneProfessional: true,
		models.ToneCasual:       true,
		models.ToneEnthusiastic: true,
	}
	validPersonas = map[models.Persona]bool{
		models.PersonaExpert:        true,
		models.PersonaFriendly:      true,
		models.PersonaAuthoritative: true,
	}
)

// Request validates the input and normalizes it into an AnalyzeRequest.
// Blank message and url become absent; tone defaults to professional and
// persona to expert. The error, if any, is a ValidationError.
func (in AnalyzeInput) Request() (AnalyzeRequest, error) {
	errs := ValidationError{}
	out := AnalyzeRequest{
		Message: nonBlank(in.Message),
		URL:     nonBlank(in.URL),
		Tone:    models.ToneProfessional,
		Persona: models.PersonaExpert,
	}

	if out.Message == nil && out.URL == nil {
		errs.add("message", "message or url is required")
	}
	if out.URL != nil && !strings.HasPrefix(*out.URL, "http://") && !strings.HasPrefix(*out.URL, "https://") {
		errs.add("url", "url must start with http:// or https://")
	}

	switch {
	case in.Tone != "":
		t := models.Tone(strings.ToLower(strings.TrimSpace(in.Tone)))
		if !validTones[t] {
			errs.add("tone", "tone must be one of professional, casual, enthusiastic")
		}
		out.Tone = t
	case in.ToneSlider != nil:
		if *in.ToneSlider < 0 || *in.ToneSlider > 100 {
			errs.add("tone_slider", fmt.Sprintf("tone_slider must be between 0 and 100, got %d", *in.ToneSlider))
		}
		out.Tone = models.ToneFromSlider(*in.ToneSlider)
	}

	if in.Persona != "" {
		p := models.Persona(strings.ToLower(strings.TrimSpace(in.Persona)))
		if !validPersonas[p] {
			errs.add("persona", "persona must be one of expert, friendly, authoritative")
		}
		out.Persona = p
	}

	if len(errs) > 0 {
		return AnalyzeRequest{}, errs
	}
	return out, nil
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
