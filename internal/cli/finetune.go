package cli

import (
	"context"
	"os/signal"
	"syscall"

	"lazycare/internal/config"
	"lazycare/internal/finetune"
	"lazycare/internal/hub"
	"lazycare/internal/tokenize"
)

func runFinetune(ctx context.Context, cfg config.Config) error {
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token, err := hub.LoadToken(cfg.Hub.EnvFile, cfg.Hub.TokenEnv)
	if err != nil {
		return err
	}
	p := &finetune.Pipeline{
		Config:    cfg.Finetune,
		Template:  cfg.Model.Template,
		Token:     token,
		Hub:       hub.NewClient(cfg.Hub.Endpoint, token),
		Tokenizer: tokenize.NewServerTokenizer(cfg.Finetune.TokenizerURL),
		Trainer:   finetune.CommandTrainer{Command: cfg.Finetune.TrainerCmd, Logger: log},
		Logger:    log,
	}
	res, err := p.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fine-tuning failed")
		return err
	}
	log.Info().Int("examples", res.Examples).Str("model_dir", res.Artifact.Dir).Msg("fine-tuning complete")
	return nil
}
