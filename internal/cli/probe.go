package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"lazycare/internal/chat"
	"lazycare/internal/config"
	"lazycare/internal/hub"
)

// ProbePersona is the persona used for the multi-sample chat probe.
const ProbePersona = "You are Lazy Care, a friendly chatbot who gives short and concise health advice. " +
	"You are a caring and knowledgeable health assistant whose role is to provide clear, concise, and empathetic medical advice. " +
	"When responding, use supportive and non-judgmental language and offer the top three most practical suggestions in a clear and concise manner."

// ProbePrompts are asked in the training delimiter format, without a chat template.
var ProbePrompts = []struct{ Label, Question string }{
	{"sleep tips", "What are some tips for better sleep?"},
	{"depression tips", "What are some tips to cure depression?"},
	{"vegetables", "Currently I am not eating alot of vegeatbles, what will be the consequences of that?"},
	{"fever", "I am having headache and my body is warming up, I have tested my body temperature which is at 39 degrees, what could be the diagnosis?"},
}

func runProbe(ctx context.Context, cfg config.Config, samples int, out io.Writer) error {
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if token, err := hub.LoadToken(cfg.Hub.EnvFile, cfg.Hub.TokenEnv); err == nil {
		if id, err := hub.NewClient(cfg.Hub.Endpoint, token).Whoami(ctx); err != nil {
			log.Warn().Err(err).Msg("hub login failed")
		} else {
			log.Info().Str("user", id.Name).Msg("hub login ok")
		}
	}

	// Samples are drawn one call at a time so every probe prints one output.
	cfg.Generation.NumReturnSequences = 1
	svc, err := loadService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, p := range ProbePrompts {
		outs, err := svc.Complete(ctx, chat.RawPrompt(p.Question))
		if err != nil {
			return fmt.Errorf("probe %s: %w", p.Label, err)
		}
		fmt.Fprintf(out, "Response for %s:\n%s\n\n", p.Label, outs[0])
	}

	for i := 1; i <= max(samples, 1); i++ {
		_, outs, err := svc.Chat(ctx, ProbePersona, ProbePrompts[0].Question)
		if err != nil {
			return fmt.Errorf("probe persona chat: %w", err)
		}
		fmt.Fprintf(out, "Suggestion %d:\n%s\n\n", i, strings.TrimSpace(outs[0]))
	}
	return nil
}
