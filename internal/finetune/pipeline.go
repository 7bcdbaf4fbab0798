// Package finetune runs the offline fine-tuning job: CSV in, model
// artifact directory out.
package finetune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"lazycare/internal/artifact"
	"lazycare/internal/common/fsutil"
	"lazycare/internal/config"
	"lazycare/internal/dataset"
	"lazycare/internal/hub"
	"lazycare/internal/tokenize"
)

// Output file names inside the work dir.
const (
	CorpusFile = "corpus.jsonl"
	TrainFile  = "train.jsonl"
)

// Hub is the subset of the hub client used by the job.
type Hub interface {
	Whoami(ctx context.Context) (hub.Identity, error)
	ModelInfo(ctx context.Context, id string) (hub.ModelInfo, error)
}

// Pipeline wires the job steps together. Steps run strictly in order.
type Pipeline struct {
	Config    config.Finetune
	Template  string
	Token     string
	Hub       Hub
	Tokenizer tokenize.Tokenizer
	Trainer   Trainer
	Logger    zerolog.Logger
}

// Result summarizes a finished run.
type Result struct {
	Examples  int
	TrainFile string
	Artifact  artifact.Artifact
}

// Run executes the job. Any failure aborts it; nothing is resumed.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	cfg := p.Config
	log := p.Logger
	if p.Tokenizer == nil || p.Trainer == nil {
		return Result{}, errors.New("finetune: tokenizer and trainer are required")
	}

	var baseSHA string
	if p.Hub != nil {
		id, err := p.Hub.Whoami(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("hub login: %w", err)
		}
		log.Info().Str("user", id.Name).Msg("hub login ok")
		if mi, err := p.Hub.ModelInfo(ctx, cfg.BaseModel); err != nil {
			log.Warn().Err(err).Str("model", cfg.BaseModel).Msg("base model revision unknown")
		} else {
			baseSHA = mi.SHA
		}
	}

	rows, err := dataset.LoadCSV(cfg.Dataset)
	if err != nil {
		return Result{}, err
	}
	rows = dataset.Head(rows, cfg.MaxRows)
	texts := dataset.Format(rows)
	log.Info().Int("rows", len(texts)).Str("dataset", cfg.Dataset).Msg("dataset loaded")

	workDir, err := fsutil.ResolveDir(cfg.WorkDir)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	if err := writeCorpus(filepath.Join(workDir, CorpusFile), texts); err != nil {
		return Result{}, err
	}

	pad := config.DefaultPadTokenID
	if cfg.PadTokenID != nil {
		pad = *cfg.PadTokenID
	}
	enc := tokenize.Encoder{Tokenizer: p.Tokenizer, MaxLength: cfg.MaxLength, PadTokenID: pad, PaddingSide: cfg.PaddingSide}
	examples, err := enc.EncodeAll(ctx, texts)
	if err != nil {
		return Result{}, err
	}
	trainPath := filepath.Join(workDir, TrainFile)
	var buf bytes.Buffer
	if err := tokenize.WriteJSONL(&buf, examples); err != nil {
		return Result{}, err
	}
	if err := fsutil.WriteFileAtomic(trainPath, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", TrainFile, err)
	}
	log.Info().Int("examples", len(examples)).Int("max_length", cfg.MaxLength).Str("file", trainPath).Msg("dataset tokenized")

	outputDir, err := fsutil.ResolveDir(cfg.OutputDir)
	if err != nil {
		return Result{}, err
	}
	saveDir, err := fsutil.ResolveDir(cfg.SaveDir)
	if err != nil {
		return Result{}, err
	}
	job := TrainJob{
		BaseModel: cfg.BaseModel,
		TrainFile: trainPath,
		EvalFile:  trainPath,
		OutputDir: outputDir,
		SaveDir:   saveDir,
		Token:     p.Token,
		Args:      cfg.Training,
	}
	if err := p.Trainer.Train(ctx, job); err != nil {
		return Result{}, err
	}

	art, err := artifact.Write(saveDir, artifact.Manifest{
		BaseModel:    cfg.BaseModel,
		BaseModelSHA: baseSHA,
		Template:     p.Template,
		Tokenizer:    artifact.TokenizerFiles(saveDir),
		Training:     TrainingArguments(cfg.Training, outputDir),
		Examples:     len(examples),
	})
	if err != nil {
		return Result{}, err
	}
	log.Info().Str("dir", art.Dir).Str("weights", art.Manifest.Weights).Msg("model saved")
	return Result{Examples: len(examples), TrainFile: trainPath, Artifact: art}, nil
}

func writeCorpus(path string, texts []string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, t := range texts {
		if err := enc.Encode(struct {
			Text string `json:"text"`
		}{t}); err != nil {
			return err
		}
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", CorpusFile, err)
	}
	return nil
}
