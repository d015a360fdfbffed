package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
)

// rawCompletion mirrors the JSON shape the model is instructed to return.
// Loosely typed on purpose: the model routinely bends the contract.
type rawCompletion struct {
	Effect      json.RawMessage    `json:"effect"`
	Confidence  *looseFloat        `json:"confidence"`
	Description json.RawMessage    `json:"description"`
	Captions    *rawCaptionEffects `json:"caption_effects"`
}

// looseFloat accepts both JSON numbers and numeric strings; models
// occasionally quote the confidence.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("confidence is not a number: %w", err)
	}
	*f = looseFloat(v)
	return nil
}

type rawCaptionEffects struct {
	Detected    *bool    `json:"detected"`
	Effects     []string `json:"effects"`
	TextContent *string  `json:"text_content"`
	Description *string  `json:"description"`
}

// NormalizeCompletion turns the model's free-form completion text into a
// fully populated ClassificationResult. Unknown effect names and
// out-of-range confidences are coerced, never rejected; only missing
// required fields or syntactically invalid JSON produce an error, wrapped
// as domain.ErrParse.
func NormalizeCompletion(text, modelUsed string) (domain.ClassificationResult, error) {
	stripped := stripCodeFence(text)

	var raw rawCompletion
	if err := json.Unmarshal([]byte(stripped), &raw); err != nil {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrParse, "decode completion", err)
	}
	if raw.Effect == nil {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrParse, "validate completion", errMissingField("effect"))
	}
	if raw.Confidence == nil {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrParse, "validate completion", errMissingField("confidence"))
	}
	if raw.Description == nil {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrParse, "validate completion", errMissingField("description"))
	}

	// A non-string effect is just another non-member value.
	effect := domain.EffectUnknown
	if s, ok := asString(raw.Effect); ok && domain.IsTransitionEffect(s) {
		effect = domain.TransitionEffect(s)
	}

	description, ok := asString(raw.Description)
	if !ok {
		description = string(raw.Description)
	}

	return domain.ClassificationResult{
		Effect:         effect,
		Confidence:     clamp01(float64(*raw.Confidence)),
		Description:    description,
		CaptionEffects: normalizeCaptions(raw.Captions),
		ModelUsed:      modelUsed,
	}, nil
}

func normalizeCaptions(raw *rawCaptionEffects) domain.CaptionEffects {
	if raw == nil {
		return domain.DefaultCaptionEffects()
	}

	effects := make([]string, 0, len(raw.Effects))
	for _, e := range raw.Effects {
		if domain.IsCaptionEffect(e) {
			effects = append(effects, e)
		}
	}
	if len(effects) == 0 {
		effects = []string{domain.CaptionEffectNone}
	}

	out := domain.CaptionEffects{Effects: effects}
	if raw.Detected != nil {
		out.Detected = *raw.Detected
	} else {
		out.Detected = len(effects) != 1 || effects[0] != domain.CaptionEffectNone
	}
	if raw.TextContent != nil {
		out.TextContent = *raw.TextContent
	}
	if raw.Description != nil {
		out.Description = *raw.Description
	}
	return out
}

// stripCodeFence removes a leading ```json (or bare ```) opener and a
// trailing ``` closer that models habitually wrap JSON answers in.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

func asString(data json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

type errMissingField string

func (e errMissingField) Error() string {
	return "missing required field: " + string(e)
}
