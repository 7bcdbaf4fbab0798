package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"lazycare/internal/artifact"
	"lazycare/internal/chat"
	"lazycare/internal/config"
	"lazycare/internal/generation"
	"lazycare/internal/logging"
)

func newLogger(cfg config.Config) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
}

// loadService reads the artifact and loads the backend once. The returned
// service owns the backend and must be closed.
func loadService(ctx context.Context, cfg config.Config, log zerolog.Logger) (*generation.Service, error) {
	art, err := artifact.Load(cfg.Model.Dir)
	if err != nil && cfg.Model.Backend != "openai" {
		return nil, fmt.Errorf("load model artifact: %w", err)
	}
	if err != nil {
		// The openai backend serves a remote model; the directory only adds metadata.
		log.Warn().Err(err).Str("dir", cfg.Model.Dir).Msg("no local artifact")
		art = artifact.Artifact{Dir: cfg.Model.Dir}
	}
	tplName := cfg.Model.Template
	if tplName == "" {
		tplName = art.Manifest.Template
	}
	tpl, err := chat.LookupTemplate(tplName)
	if err != nil {
		return nil, err
	}
	log.Info().Str("backend", cfg.Model.Backend).Str("dir", art.Dir).Str("weights", art.Manifest.Weights).Str("template", tpl.Name()).Msg("loading model")
	backend, err := generation.NewBackend(ctx, cfg.Model, art, log)
	if err != nil {
		return nil, err
	}
	svc, err := generation.NewService(backend, generation.Options{
		Template:       tpl,
		Sampling:       generation.SamplingFromConfig(cfg.Generation),
		ReturnFullText: cfg.Generation.ReturnFullText == nil || *cfg.Generation.ReturnFullText,
		Model:          art.Info(),
		Logger:         log,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return svc, nil
}
