package domain

// RemoteFileState is the lifecycle tag the provider reports for an
// uploaded video while it transcodes and indexes it.
type RemoteFileState string

const (
	FileStateProcessing RemoteFileState = "PROCESSING"
	FileStateActive     RemoteFileState = "ACTIVE"
	FileStateFailed     RemoteFileState = "FAILED"
)

// RemoteFile references a video as known by the provider. The service
// only observes state transitions by re-fetching the file.
type RemoteFile struct {
	Name     string          `json:"name"`
	URI      string          `json:"uri"`
	MIMEType string          `json:"mime_type"`
	State    RemoteFileState `json:"state"`
}

// TransitionEffect is one of the closed set of edit transitions the
// service classifies.
type TransitionEffect string

const (
	EffectHardCut         TransitionEffect = "hard_cut"
	EffectCrossfade       TransitionEffect = "crossfade"
	EffectWhipPan         TransitionEffect = "whip_pan"
	EffectZoomCut         TransitionEffect = "zoom_cut"
	EffectSpeedRamp       TransitionEffect = "speed_ramp"
	EffectShakeTransition TransitionEffect = "shake_transition"
	EffectFlashFrame      TransitionEffect = "flash_frame"
	EffectReverse         TransitionEffect = "reverse_effect"
	EffectMatchCut        TransitionEffect = "match_cut"
	EffectUnknown         TransitionEffect = "unknown"
)

var transitionEffects = map[TransitionEffect]struct{}{
	EffectHardCut:         {},
	EffectCrossfade:       {},
	EffectWhipPan:         {},
	EffectZoomCut:         {},
	EffectSpeedRamp:       {},
	EffectShakeTransition: {},
	EffectFlashFrame:      {},
	EffectReverse:         {},
	EffectMatchCut:        {},
	EffectUnknown:         {},
}

func IsTransitionEffect(v string) bool {
	_, ok := transitionEffects[TransitionEffect(v)]
	return ok
}

// CaptionEffectNone marks the absence of any on-screen text animation.
const CaptionEffectNone = "none"

var captionEffects = map[string]struct{}{
	"typewriter":         {},
	"pop_up":             {},
	"fade_in":            {},
	"slide_in":           {},
	"kinetic_typography": {},
	"glitch_text":        {},
	"neon_glow":          {},
	"3d_text":            {},
	"handwritten":        {},
	"bounce":             {},
	"shake":              {},
	"highlight":          {},
	"word_by_word":       {},
	"scale_in":           {},
	"rotate_in":          {},
	"split_text":         {},
	"stroke_reveal":      {},
	"color_wipe":         {},
	CaptionEffectNone:    {},
}

func IsCaptionEffect(v string) bool {
	_, ok := captionEffects[v]
	return ok
}

// CaptionEffects describes animated on-screen text detected in the clip.
// Always present in a normalized result; defaults mark "no text found".
type CaptionEffects struct {
	Detected    bool     `json:"detected"`
	Effects     []string `json:"effects"`
	TextContent string   `json:"text_content"`
	Description string   `json:"description"`
}

// DefaultCaptionEffects is the synthesized sub-object used when the model
// reported nothing about on-screen text.
func DefaultCaptionEffects() CaptionEffects {
	return CaptionEffects{
		Detected:    false,
		Effects:     []string{CaptionEffectNone},
		TextContent: "",
		Description: "",
	}
}

// ClassificationResult is the normalized service output. Every field is
// populated after normalization regardless of what the model returned.
type ClassificationResult struct {
	Effect         TransitionEffect `json:"effect"`
	Confidence     float64          `json:"confidence"`
	Description    string           `json:"description"`
	CaptionEffects CaptionEffects   `json:"caption_effects"`
	ModelUsed      string           `json:"model_used"`
}

// ClassificationEvent is published after a successful classification for
// downstream consumers.
type ClassificationEvent struct {
	RequestID  string           `json:"request_id"`
	Filename   string           `json:"filename"`
	Effect     TransitionEffect `json:"effect"`
	Confidence float64          `json:"confidence"`
	ModelUsed  string           `json:"model_used"`
}
