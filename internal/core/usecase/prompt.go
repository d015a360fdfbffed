package usecase

// Prompt wording is part of the contract with the model: the taxonomy
// identifiers below must match what the normalizer accepts.

const transitionPromptSection = `Analyze this video clip and identify the primary video editing effect/transition used.

Effect categories (choose the best match):
- hard_cut: Abrupt change between shots with no transition
- crossfade: Gradual dissolve/fade from one shot to another
- whip_pan: Fast camera pan movement with motion blur
- zoom_cut: Quick zoom transition between shots
- speed_ramp: Speed change (slow motion or fast motion effect)
- shake_transition: Camera shake or vibration effect
- flash_frame: Brief white/black flash between shots
- reverse_effect: Reverse motion playback
- match_cut: Visual continuity cut matching objects/shapes
- unknown: No clear editing effect detected`

const basePromptOutput = `Return ONLY a JSON object in this exact format:
{"effect": "effect_name", "confidence": 0.85, "description": "brief explanation of why this effect was detected"}`

const captionPromptSection = `Also analyze any on-screen text/captions and identify the text animation effects used.

Text effect categories (list every match):
- typewriter: Characters appear one at a time
- pop_up: Text appears suddenly at full size
- fade_in: Text fades in gradually
- slide_in: Text slides in from an edge
- kinetic_typography: Text moves in sync with speech or music
- glitch_text: Digital distortion/glitch styling
- neon_glow: Glowing neon outline
- 3d_text: Extruded or perspective 3D text
- handwritten: Handwriting-style reveal
- bounce: Text bounces into place
- shake: Text vibrates or shakes
- highlight: Words highlighted as they are spoken
- word_by_word: Words appear one at a time
- scale_in: Text scales up into place
- rotate_in: Text rotates into place
- split_text: Text splits apart or assembles from pieces
- stroke_reveal: Outline drawn before the fill appears
- color_wipe: Color sweeps across the text
- none: No text present or no animation applied

If no on-screen text is present, report {"detected": false, "effects": ["none"]}.`

const captionPromptOutput = `Return ONLY a JSON object in this exact format:
{"effect": "effect_name", "confidence": 0.85, "description": "brief explanation of why this effect was detected", "caption_effects": {"detected": true, "effects": ["effect_name"], "text_content": "the visible text", "description": "brief explanation of the text effects"}}`

// buildClassificationPrompt assembles the fixed instruction sent with
// every clip. captionAnalysis extends it with the text-effect taxonomy.
func buildClassificationPrompt(captionAnalysis bool) string {
	if !captionAnalysis {
		return transitionPromptSection + "\n\n" + basePromptOutput
	}
	return transitionPromptSection + "\n\n" + captionPromptSection + "\n\n" + captionPromptOutput
}
