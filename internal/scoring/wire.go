package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/codezelat/pitchlens/pkg/models"
)

// requiredScores must be present and numeric in every wire record.
var requiredScores = []string{"score", "clarity", "emotion", "credibility", "market_effectiveness"}

// WireRecord is the scoring service's analysis shape.
type WireRecord struct {
	ID                  int64          `json:"id"`
	Score               int            `json:"score"`
	Clarity             int            `json:"clarity"`
	Emotion             int            `json:"emotion"`
	Credibility         int            `json:"credibility"`
	MarketEffectiveness int            `json:"market_effectiveness"`
	Suggestion          string         `json:"suggestion"`
	Insights            []string       `json:"insights"`
	Tone                models.Tone    `json:"tone"`
	Persona             models.Persona `json:"persona"`
	CreatedAt           string         `json:"created_at"`
	Message             *string        `json:"message"`
	URL                 *string        `json:"url"`
}

// MapRecord converts a wire record into the canonical AnalysisRecord.
// It is a structural transform only: ranges are not validated and a null
// message or url stays absent.
func MapRecord(w WireRecord) models.AnalysisRecord {
	id := w.ID
	return models.AnalysisRecord{
		AnalysisResult: models.AnalysisResult{
			Score:               w.Score,
			Clarity:             w.Clarity,
			Emotion:             w.Emotion,
			Credibility:         w.Credibility,
			MarketEffectiveness: w.MarketEffectiveness,
			Suggestion:          w.Suggestion,
			Insights:            w.Insights,
		},
		ID:        &id,
		Input:     models.AnalysisInput{Message: w.Message, URL: w.URL},
		Tone:      w.Tone,
		Persona:   w.Persona,
		CreatedAt: w.CreatedAt,
	}
}

// MapRecords maps a slice of wire records, preserving order. Never returns nil.
func MapRecords(ws []WireRecord) []models.AnalysisRecord {
	out := make([]models.AnalysisRecord, 0, len(ws))
	for _, w := range ws {
		out = append(out, MapRecord(w))
	}
	return out
}

// DecodeRecord parses one wire record. A body that is not an object, or that
// lacks any of the five scores as numbers, is ErrInvalidBody.
func DecodeRecord(data []byte) (WireRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return WireRecord{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if fields == nil {
		return WireRecord{}, fmt.Errorf("%w: record is null", ErrInvalidBody)
	}
	for _, name := range requiredScores {
		if !isNumber(fields[name]) {
			return WireRecord{}, fmt.Errorf("%w: missing or non-numeric %q", ErrInvalidBody, name)
		}
	}

	var w WireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return WireRecord{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return w, nil
}

// DecodeRecords parses a list of wire records. One invalid element rejects
// the whole list.
func DecodeRecords(data []byte) ([]WireRecord, error) {
	var items *[]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: list is null", ErrInvalidBody)
	}

	out := make([]WireRecord, 0, len(*items))
	for i, raw := range *items {
		w, err := DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func isNumber(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}
