package translate

import (
	"context"

	"stdapi-go/internal/subtitle"
)

// Cues translates each caption segment independently, keeping timestamps
// intact so the translated document still lines up with the audio.
func Cues(ctx context.Context, tr Translator, cues []subtitle.Cue, sourceLang, targetLang string) ([]subtitle.Cue, error) {
	out := make([]subtitle.Cue, len(cues))
	for i, cue := range cues {
		text, err := tr.Translate(ctx, cue.Text, sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		out[i] = subtitle.Cue{Start: cue.Start, End: cue.End, Text: text}
	}
	return out, nil
}
