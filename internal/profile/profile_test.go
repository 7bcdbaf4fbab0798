package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lazycare/pkg/types"
)

func str(s string) *string { return &s }

func newTestService() *Service {
	s := NewService(NewMemoryStore())
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestUpsert_CreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	p, created, err := s.Upsert(ctx, types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com")})
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if p.ID == "" || p.CreatedAt != "2025-03-01T10:00:00.000000000Z" {
		t.Fatalf("profile %+v", p)
	}
	again, created, err := s.Upsert(ctx, types.ProfileRequest{Username: str("jane d"), Email: str("jane@example.com")})
	if err != nil || created {
		t.Fatalf("update: created=%v err=%v", created, err)
	}
	if again.ID != p.ID || again.Username != "jane d" {
		t.Fatalf("expected same profile renamed, got %+v", again)
	}
}

func TestUpsert_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  types.ProfileRequest
	}{
		{"missing username", types.ProfileRequest{Email: str("jane@example.com")}},
		{"missing email", types.ProfileRequest{Username: str("jane")}},
		{"blank username", types.ProfileRequest{Username: str("  "), Email: str("jane@example.com")}},
		{"bad email", types.ProfileRequest{Username: str("jane"), Email: str("jane@example")}},
		{"email with space", types.ProfileRequest{Username: str("jane"), Email: str("ja ne@example.com")}},
		{"future birthday", types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com"), Birthday: str("2030-01-01")}},
		{"today birthday", types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com"), Birthday: str("2025-03-01T10:00:00Z")}},
		{"garbage birthday", types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com"), Birthday: str("12/04/1990")}},
		{"negative weight", types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com"), Weight: json.RawMessage(`-3`)}},
		{"text weight", types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com"), Weight: json.RawMessage(`"heavy"`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := newTestService().Upsert(context.Background(), tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.StatusCode() != 400 {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	p, _, _ := s.Upsert(ctx, types.ProfileRequest{Username: str("jane"), Email: str("jane@example.com")})

	got, err := s.Update(ctx, "jane@example.com", types.ProfileRequest{Birthday: str("1990-04-12"), Weight: json.RawMessage(`"62.50"`), WeightUnit: str("kg")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Username != "jane" || got.Birthday != "1990-04-12" || got.Weight != "62.5" || got.WeightUnit != "kg" {
		t.Fatalf("profile %+v", got)
	}

	got, err = s.UpdateByID(ctx, p.ID, types.ProfileRequest{Gender: str("female"), Weight: json.RawMessage(`63`)})
	if err != nil || got.Gender != "female" || got.Weight != "63" || got.Birthday != "1990-04-12" {
		t.Fatalf("update by id: %+v err=%v", got, err)
	}

	if _, err := s.Update(ctx, "jane@example.com", types.ProfileRequest{Email: str("other@example.com")}); err == nil {
		t.Fatalf("expected email change to be rejected")
	}
	if _, err := s.Update(ctx, "nobody@example.com", types.ProfileRequest{Gender: str("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateByID(ctx, "missing", types.ProfileRequest{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClearDetailsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	p, _, _ := s.Upsert(ctx, types.ProfileRequest{
		Username: str("jane"), Email: str("jane@example.com"),
		Birthday: str("1990-04-12"), Gender: str("female"), Weight: json.RawMessage(`62`), WeightUnit: str("kg"),
	})
	cleared, err := s.ClearDetails(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.Birthday != "" || cleared.Gender != "" || cleared.Weight != "" || cleared.Username != "jane" || cleared.WeightUnit != "kg" {
		t.Fatalf("cleared %+v", cleared)
	}
	if _, err := s.ClearDetails(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	del, err := s.Delete(ctx, p.ID)
	if err != nil || del.Email != "jane@example.com" {
		t.Fatalf("delete: %+v err=%v", del, err)
	}
	if _, err := s.Get(ctx, "jane@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}
	if _, err := s.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected id index gone, got %v", err)
	}
	if _, err := s.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseWeight(t *testing.T) {
	cases := map[string]string{
		``:        "",
		`null`:    "",
		`""`:      "",
		`70`:      "70",
		`"70.0"`:  "70",
		` 81.25 `: "81.25",
	}
	for in, want := range cases {
		got, err := parseWeight(json.RawMessage(in))
		if err != nil || string(got) != want {
			t.Fatalf("parseWeight(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{`0`, `"NaN"`, `true`, `"1e400"`} {
		if _, err := parseWeight(json.RawMessage(in)); err == nil {
			t.Fatalf("parseWeight(%q): expected error", in)
		}
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{Backend: "off"})
	if err != nil || s != nil {
		t.Fatalf("off: %v %v", s, err)
	}
	if s, err := Open(context.Background(), Options{}); err != nil || s == nil {
		t.Fatalf("memory default: %v %v", s, err)
	}
	if _, err := Open(context.Background(), Options{Backend: "mongo"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Open(context.Background(), Options{Backend: "redis", RedisURL: "::bad"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
