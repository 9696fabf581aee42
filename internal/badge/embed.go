package badge

import "fmt"

const heroEmbed = `<div style="display: inline-block; padding: 20px; background: linear-gradient(135deg, #4B3CDB, #6C5CE7); border-radius: 16px; color: white; font-family: system-ui, -apple-system, sans-serif; text-align: center; box-shadow: 0 10px 25px rgba(75, 60, 219, 0.3);">
  <div style="font-size: 14px; opacity: 0.9; margin-bottom: 8px;">Market Resonance Score</div>
  <div style="font-size: 48px; font-weight: bold; margin-bottom: 4px;">%d</div>
  <div style="font-size: 12px; opacity: 0.8;">Verified by PitchLens</div>
</div>`

const compactEmbed = `<div style="display: inline-flex; align-items: center; gap: 12px; padding: 10px 16px; background: linear-gradient(135deg, #4B3CDB, #6C5CE7); border-radius: 12px; color: white; font-family: system-ui, -apple-system, sans-serif;">
  <div style="font-size: 28px; font-weight: bold; line-height: 1;">%d</div>
  <div style="line-height: 1.3;">
    <div style="font-size: 12px; font-weight: 600; opacity: 0.9;">Market Resonance</div>
    <div style="font-size: 10px; opacity: 0.8;">Verified by PitchLens</div>
  </div>
</div>`

const minimalEmbed = `<div style="display: inline-block; padding: 10px 18px; background: white; border: 2px solid #4B3CDB; border-radius: 8px; color: #4B3CDB; font-family: system-ui, -apple-system, sans-serif; text-align: center;">
  <div style="font-size: 20px; font-weight: bold;">Score: %d</div>
  <div style="font-size: 11px; opacity: 0.8;">Verified by PitchLens</div>
</div>`

// Embed returns self-contained, inline-styled HTML for the badge. It has no
// external stylesheet or script and is byte-identical for a given style and score.
func Embed(style Style, score int) (string, error) {
	switch style {
	case Hero:
		return fmt.Sprintf(heroEmbed, score), nil
	case Compact:
		return fmt.Sprintf(compactEmbed, score), nil
	case Minimal:
		return fmt.Sprintf(minimalEmbed, score), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, string(style))
}
