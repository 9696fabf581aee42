// Package models contains shared data models used across the PitchLens codebase.
package models

import (
	"strings"
	"time"
)

// Tone is the voice the scoring service was asked to evaluate against.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneEnthusiastic Tone = "enthusiastic"
)

// Persona is the reader persona the scoring service was asked to adopt.
type Persona string

const (
	PersonaExpert        Persona = "expert"
	PersonaFriendly      Persona = "friendly"
	PersonaAuthoritative Persona = "authoritative"
)

// ToneFromSlider maps a 0-100 slider position onto a Tone.
func ToneFromSlider(value int) Tone {
	switch {
	case value < 34:
		return ToneProfessional
	case value < 67:
		return ToneCasual
	default:
		return ToneEnthusiastic
	}
}

// ToneLabel returns the human label shown next to a slider position.
func ToneLabel(value int) string {
	switch {
	case value < 30:
		return "Formal"
	case value < 70:
		return "Balanced"
	default:
		return "Enthusiastic"
	}
}

// AnalysisInput is the subject of an analysis. Message and URL are nil when
// absent, never the empty string.
type AnalysisInput struct {
	Message *string `json:"message,omitempty"`
	URL     *string `json:"url,omitempty"`
}

// Subject returns the effective subject of analysis, preferring the message.
func (in AnalysisInput) Subject() (string, bool) {
	if in.Message != nil && strings.TrimSpace(*in.Message) != "" {
		return *in.Message, true
	}
	if in.URL != nil && strings.TrimSpace(*in.URL) != "" {
		return *in.URL, true
	}
	return "", false
}

// AnalysisResult holds the scores produced by the scoring service.
// Sub-scores are conventionally 0-100 but are not clamped here.
type AnalysisResult struct {
	Score               int      `json:"score"`
	Clarity             int      `json:"clarity"`
	Emotion             int      `json:"emotion"`
	Credibility         int      `json:"credibility"`
	MarketEffectiveness int      `json:"market_effectiveness"`
	Suggestion          string   `json:"suggestion"`
	Insights            []string `json:"insights"`
}

// AnalysisRecord is the canonical shape of one analysis: the result plus the
// input and request parameters that produced it.
//
// A record with a non-nil ID came from the scoring service. A record without
// one only ever existed locally.
type AnalysisRecord struct {
	AnalysisResult
	ID        *int64        `json:"id,omitempty"`
	Input     AnalysisInput `json:"input"`
	Tone      Tone          `json:"tone"`
	Persona   Persona       `json:"persona"`
	CreatedAt string        `json:"createdAt"`
}

// ServerIdentified reports whether the record was assigned an id by the scoring service.
func (r AnalysisRecord) ServerIdentified() bool {
	return r.ID != nil
}

// SameIdentity reports whether two records refer to the same server-side analysis.
// Local-only records never share an identity, even with themselves.
func (r AnalysisRecord) SameIdentity(other AnalysisRecord) bool {
	if r.ID == nil || other.ID == nil {
		return false
	}
	return *r.ID == *other.ID
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// CreatedTime parses CreatedAt. Timestamps without a zone are taken as UTC.
func (r AnalysisRecord) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(r.CreatedAt)
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the shapes the scoring
// service and older clients have produced.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
