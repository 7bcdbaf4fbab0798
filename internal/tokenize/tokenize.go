// Package tokenize turns formatted training text into fixed-length causal
// language modeling examples.
package tokenize

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Tokenizer maps text to token ids of the base model's vocabulary.
type Tokenizer interface {
	Encode(ctx context.Context, text string) ([]int, error)
}

// Example is one tokenized training row.
type Example struct {
	InputIDs      []int `json:"input_ids"`
	AttentionMask []int `json:"attention_mask"`
	Labels        []int `json:"labels"`
}

// Encoder pads or truncates every text to exactly MaxLength tokens.
type Encoder struct {
	Tokenizer   Tokenizer
	MaxLength   int
	PadTokenID  int
	PaddingSide string // "right" (default) or "left"
}

// Encode tokenizes one text. Labels are a copy of the input ids; padding
// positions keep the pad id and get a zero attention mask.
func (e Encoder) Encode(ctx context.Context, text string) (Example, error) {
	if e.Tokenizer == nil {
		return Example{}, errors.New("tokenize: no tokenizer")
	}
	if e.MaxLength <= 0 {
		return Example{}, fmt.Errorf("tokenize: max length must be positive, got %d", e.MaxLength)
	}
	ids, err := e.Tokenizer.Encode(ctx, text)
	if err != nil {
		return Example{}, err
	}
	if len(ids) > e.MaxLength {
		ids = ids[:e.MaxLength]
	}
	pad := e.MaxLength - len(ids)
	input := make([]int, 0, e.MaxLength)
	mask := make([]int, 0, e.MaxLength)
	if e.PaddingSide == "left" {
		for i := 0; i < pad; i++ {
			input = append(input, e.PadTokenID)
			mask = append(mask, 0)
		}
	}
	for _, id := range ids {
		input = append(input, id)
		mask = append(mask, 1)
	}
	if e.PaddingSide != "left" {
		for i := 0; i < pad; i++ {
			input = append(input, e.PadTokenID)
			mask = append(mask, 0)
		}
	}
	labels := make([]int, len(input))
	copy(labels, input)
	return Example{InputIDs: input, AttentionMask: mask, Labels: labels}, nil
}

// EncodeAll tokenizes texts in order and stops at the first failure.
func (e Encoder) EncodeAll(ctx context.Context, texts []string) ([]Example, error) {
	out := make([]Example, 0, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ex, err := e.Encode(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("tokenize row %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

// WriteJSONL writes one JSON object per example.
func WriteJSONL(w io.Writer, examples []Example) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return err
		}
	}
	return bw.Flush()
}
