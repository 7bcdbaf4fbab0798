// Package dataset loads the question/answer CSV used for fine-tuning.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"lazycare/internal/chat"
)

// Column names required in the CSV header.
const (
	QuestionColumn = "Question"
	AnswerColumn   = "Answer"
)

// ErrEmptyDataset is returned when the CSV has a header but no rows.
var ErrEmptyDataset = errors.New("the dataset is empty. please check the file content")

// Row is one question/answer pair.
type Row struct {
	Question string
	Answer   string
}

// LoadCSV reads path. Extra columns are ignored.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read parses CSV content from r.
func Read(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, err
	}
	qi, ai := -1, -1
	for i, h := range header {
		switch h {
		case QuestionColumn:
			qi = i
		case AnswerColumn:
			ai = i
		}
	}
	if qi < 0 || ai < 0 {
		return nil, fmt.Errorf("missing %q or %q column in header %v", QuestionColumn, AnswerColumn, header)
	}
	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Question: field(rec, qi), Answer: field(rec, ai)})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// Head returns the first n rows; n <= 0 keeps all of them.
func Head(rows []Row, n int) []Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// Format renders every row with the training delimiter scheme.
func Format(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = chat.FormatTrainingText(r.Question, r.Answer)
	}
	return out
}
