package turntaking

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/logging"
	"github.com/hupe1980/innerthoughts/model"
)

// AnySpeaker is returned when no specific participant is allocated the next
// turn.
const AnySpeaker = "anyone"

// PredictorOptions configures a Predictor.
type PredictorOptions struct {
	// HistoryWindow is the number of trailing utterances fed to the model.
	HistoryWindow int
	// Temperature for the prediction call.
	Temperature float64
	// Logger receives prediction activity.
	Logger logging.Logger
}

// Predictor asks a language model who the next speaker will be based on the
// recent history. Invalid or failed predictions degrade to AnySpeaker.
type Predictor struct {
	generator model.Generator
	opts      PredictorOptions
}

// NewPredictor creates a next-speaker predictor.
func NewPredictor(generator model.Generator, optFns ...func(o *PredictorOptions)) *Predictor {
	opts := PredictorOptions{
		HistoryWindow: 5,
		Temperature:   0.7,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Predictor{generator: generator, opts: opts}
}

// PredictNextSpeaker returns a participant name, or AnySpeaker when the next
// turn is not clearly allocated. It never fails the cycle.
func (p *Predictor) PredictNextSpeaker(ctx context.Context, conv *core.Conversation) string {
	participants := conv.Participants()
	if len(participants) == 0 {
		return AnySpeaker
	}
	names := make([]string, len(participants))
	for i, part := range participants {
		names[i] = part.Name()
	}

	var history strings.Builder
	for _, ev := range conv.LastN(p.opts.HistoryWindow) {
		fmt.Fprintf(&history, "%s: %s\n", ev.Sender, ev.Content)
	}

	instructions := fmt.Sprintf(
		"This is a conversation between %d speakers. The speakers are: %s. "+
			"Predict who the next speaker will be based on the last utterances. Return ONLY the speaker name. "+
			"If the next speaker is not clearly allocated to a specific speaker and any speaker could take the floor in the next turn, return %q.",
		len(participants), strings.Join(names, ", "), AnySpeaker)
	if conv.Context != "" {
		instructions += " The conversation is set as follows: " + conv.Context
	}
	input := fmt.Sprintf("<Task>Last utterances:\n%s\nPrediction: ", history.String())

	out, err := model.Retry(ctx, func(ctx context.Context) (string, error) {
		return p.generator.Generate(ctx, model.Request{
			Instructions: instructions,
			Input:        input,
			Temperature:  p.opts.Temperature,
		})
	})
	if err != nil {
		p.opts.Logger.Warn("turn prediction failed", "error", err)
		return AnySpeaker
	}

	predicted := strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`))
	if predicted == AnySpeaker {
		return AnySpeaker
	}
	for _, name := range names {
		if predicted == name {
			return predicted
		}
	}
	p.opts.Logger.Debug("invalid speaker prediction", "predicted", predicted)
	return AnySpeaker
}
