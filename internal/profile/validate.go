package profile

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidationError rejects a request; it maps to 400.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string   { return e.Msg }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(s string) bool { return emailPattern.MatchString(s) }

// checkBirthday accepts a calendar date or an RFC3339 time strictly before now.
func checkBirthday(s string, now time.Time) error {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	if err != nil || !t.Before(now) {
		return invalid("Invalid birthday format. It must be a past date.")
	}
	return nil
}

// parseWeight takes a JSON number or numeric string; null and "" clear it.
func parseWeight(raw json.RawMessage) (json.Number, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", invalid("weight must be a number")
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return "", invalid("weight must be a positive number")
	}
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64)), nil
}
