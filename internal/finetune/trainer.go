package finetune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"lazycare/internal/config"
	"lazycare/internal/logging"
)

// TrainJob is everything a trainer needs for one run.
type TrainJob struct {
	BaseModel string
	TrainFile string
	// EvalFile is the same file as TrainFile: no separate validation split.
	EvalFile  string
	OutputDir string
	SaveDir   string
	Token     string
	Args      config.Training
}

// Trainer runs the training loop and saves the resulting weights to SaveDir.
type Trainer interface {
	Train(ctx context.Context, job TrainJob) error
}

// CommandTrainer execs an external training program. Hyperparameters are
// passed as --key=value flags; HF_TOKEN carries the hub credential.
type CommandTrainer struct {
	Command []string
	Logger  zerolog.Logger
	// GracePeriod between SIGTERM and kill on cancellation.
	GracePeriod time.Duration
}

const stderrTailBytes = 4096

// Train runs the command and waits for it. A non-zero exit returns an error
// quoting the tail of stderr.
func (t CommandTrainer) Train(ctx context.Context, job TrainJob) error {
	if len(t.Command) == 0 {
		return errors.New("trainer command is not configured (finetune.trainer_cmd)")
	}
	args := append(append([]string(nil), t.Command[1:]...), TrainerArgs(job)...)
	cmd := exec.CommandContext(ctx, t.Command[0], args...)
	cmd.Env = append(os.Environ(), "HF_TOKEN="+job.Token, "HUGGING_FACE_HUB_TOKEN="+job.Token)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	grace := t.GracePeriod
	if grace <= 0 {
		grace = 10 * time.Second
	}
	cmd.WaitDelay = grace

	stdout := &logging.LineWriter{Logger: t.Logger, Level: zerolog.InfoLevel, Prefix: "trainer"}
	stderr := &logging.LineWriter{Logger: t.Logger, Level: zerolog.WarnLevel, Prefix: "trainer"}
	tail := &logging.TailBuffer{Max: stderrTailBytes}
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)

	t.Logger.Info().Str("cmd", t.Command[0]).Strs("args", args).Msg("trainer starting")
	start := time.Now()
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("trainer canceled: %w", ctx.Err())
		}
		return fmt.Errorf("trainer failed: %v; stderr tail: %s", err, tail.String())
	}
	t.Logger.Info().Dur("dur", time.Since(start)).Msg("trainer finished")
	return nil
}

// TrainerArgs renders the job as command-line flags in a stable order.
func TrainerArgs(job TrainJob) []string {
	kv := TrainingArguments(job.Args, job.OutputDir)
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := []string{
		"--model_name_or_path=" + job.BaseModel,
		"--train_file=" + job.TrainFile,
		"--eval_file=" + job.EvalFile,
		"--save_dir=" + job.SaveDir,
	}
	for _, k := range keys {
		out = append(out, "--"+k+"="+kv[k])
	}
	return out
}

// TrainingArguments flattens the hyperparameters; the result is also
// recorded in the artifact manifest.
func TrainingArguments(tr config.Training, outputDir string) map[string]string {
	fp16 := tr.FP16 != nil && *tr.FP16
	return map[string]string{
		"output_dir":                  outputDir,
		"eval_strategy":               tr.EvalStrategy,
		"logging_strategy":            tr.LoggingStrategy,
		"logging_steps":               strconv.Itoa(tr.LoggingSteps),
		"learning_rate":               strconv.FormatFloat(tr.LearningRate, 'g', -1, 64),
		"per_device_train_batch_size": strconv.Itoa(tr.PerDeviceTrainBatchSize),
		"per_device_eval_batch_size":  strconv.Itoa(tr.PerDeviceEvalBatchSize),
		"num_train_epochs":            strconv.Itoa(tr.NumTrainEpochs),
		"weight_decay":                strconv.FormatFloat(tr.WeightDecay, 'g', -1, 64),
		"gradient_accumulation_steps": strconv.Itoa(tr.GradientAccumulationSteps),
		"fp16":                        strconv.FormatBool(fp16),
		"save_total_limit":            strconv.Itoa(tr.SaveTotalLimit),
		"report_to":                   tr.ReportTo,
	}
}
