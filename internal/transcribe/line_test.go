package transcribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/inkmark-app/inkmark/internal/providers"
	"github.com/inkmark-app/inkmark/internal/segment"
)

func testSlice() segment.Slice {
	return segment.Slice{Image: []byte("line-pixels"), MIME: "image/png", Top: 10, Bottom: 40}
}

func TestResolveLineConsensusIdentical(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(int, string) (string, error) { return "Buy milk", nil },
	}
	e := New(fake, testOpts())

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	if res.Text != "Buy milk" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Confidence != 1 {
		t.Errorf("confidence = %v, expected 1", res.Confidence)
	}
	if res.Unresolved {
		t.Error("identical clean readings must not be unresolved")
	}
	if n := fake.judges.Load(); n != 0 {
		t.Errorf("judge called %d times despite consensus", n)
	}
}

func TestResolveLineUsesTwoPromptWordings(t *testing.T) {
	var mu sync.Mutex
	var prompts []string
	fake := &fakeClient{
		transcribe: func(_ int, userPrompt string) (string, error) {
			mu.Lock()
			prompts = append(prompts, userPrompt)
			mu.Unlock()
			return "x", nil
		},
	}
	e := New(fake, testOpts())

	if _, err := e.resolveLine(context.Background(), testSlice()); err != nil {
		t.Fatalf("resolveLine: %v", err)
	}

	if len(prompts) != 2 {
		t.Fatalf("expected 2 transcribe calls, got %d", len(prompts))
	}
	if prompts[0] == prompts[1] {
		t.Error("both calls used the same prompt wording")
	}
	for i, p := range prompts {
		if !strings.Contains(p, providers.IllegibilityMarker) {
			t.Errorf("prompt %d does not mention the illegibility marker", i)
		}
	}
}

func TestResolveLineNormalizesWhitespace(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(call int, _ string) (string, error) {
			if call == 1 {
				return "  Buy \n  milk \n", nil
			}
			return "Buy milk", nil
		},
	}
	e := New(fake, testOpts())

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	if res.Text != "Buy milk" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Confidence != 1 {
		t.Errorf("confidence = %v", res.Confidence)
	}
}

func TestResolveLineFewerMarkersWins(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(call int, _ string) (string, error) {
			if call == 1 {
				return "Grocery list for [?] Tuesday", nil
			}
			return "Grocery list for Tuesday", nil
		},
	}
	e := New(fake, testOpts())

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	if res.Text != "Grocery list for Tuesday" {
		t.Errorf("text = %q, expected the marker-free reading", res.Text)
	}
	if res.Unresolved {
		t.Error("chosen text has no marker, must not be unresolved")
	}
	if n := fake.judges.Load(); n != 0 {
		t.Error("judge called for agreeing readings")
	}
}

func TestResolveLineJudgeArbitration(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(call int, _ string) (string, error) {
			if call == 1 {
				return "Buy milk", nil
			}
			return "Dry wilk", nil
		},
		judge: func(a, b string) (string, error) {
			if a != "Buy milk" || b != "Dry wilk" {
				t.Errorf("judge received %q / %q", a, b)
			}
			return "Buy milk", nil
		},
	}
	e := New(fake, testOpts())

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	if res.Text != "Buy milk" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Confidence != 1 {
		t.Errorf("confidence = %v, judge agreed with candidate A exactly", res.Confidence)
	}
	if n := fake.judges.Load(); n != 1 {
		t.Errorf("judge calls = %d", n)
	}
}

func TestResolveLineJudgeEmptyFallsBack(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(call int, _ string) (string, error) {
			if call == 1 {
				return "Buy milk", nil
			}
			return "Dry wilk", nil
		},
		judge: func(string, string) (string, error) { return "  \n ", nil },
	}
	e := New(fake, testOpts())

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	// Marker counts and lengths tie, so the first candidate wins.
	if res.Text != "Buy milk" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestResolveLineUnresolvedMarker(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(int, string) (string, error) { return "Call [?] tomorrow", nil },
	}
	e := New(fake, testOpts())

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	if !res.Unresolved {
		t.Error("text containing the marker must be unresolved")
	}
}

func TestResolveLineRetriesRecoverable(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(call int, _ string) (string, error) {
			if call == 1 {
				return "", &providers.Error{Provider: "fake", StatusCode: 500, Message: "upstream"}
			}
			return "Buy milk", nil
		},
	}
	opts := testOpts()
	opts.MaxLineRetries = 2
	e := New(fake, opts)

	res, err := e.resolveLine(context.Background(), testSlice())
	if err != nil {
		t.Fatalf("resolveLine: %v", err)
	}
	if res.Text != "Buy milk" {
		t.Errorf("text = %q", res.Text)
	}
	if n := fake.transcribes.Load(); n != 3 {
		t.Errorf("transcribe calls = %d, expected one retry plus the second reading", n)
	}
}

func TestResolveLineNonRecoverableFailsFast(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(int, string) (string, error) {
			return "", &providers.Error{Provider: "fake", StatusCode: 401, Message: "bad key"}
		},
	}
	opts := testOpts()
	opts.MaxLineRetries = 3
	e := New(fake, opts)

	_, err := e.resolveLine(context.Background(), testSlice())
	var pe *providers.Error
	if !errors.As(err, &pe) || pe.StatusCode != 401 {
		t.Fatalf("expected the 401 to surface, got %v", err)
	}
	if n := fake.transcribes.Load(); n != 1 {
		t.Errorf("transcribe calls = %d, expected no retries", n)
	}
}

func TestResolveLineExhaustsRetries(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(int, string) (string, error) {
			return "", &providers.Error{Provider: "fake", StatusCode: 503, Message: "down"}
		},
	}
	opts := testOpts()
	opts.MaxLineRetries = 1
	e := New(fake, opts)

	_, err := e.resolveLine(context.Background(), testSlice())
	if err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	if n := fake.transcribes.Load(); n != 2 {
		t.Errorf("transcribe calls = %d, expected original plus one retry", n)
	}
}

func TestBetterCandidate(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected string
	}{
		{name: "fewer markers wins", a: "Buy [?] milk", b: "Buy the milk", expected: "Buy the milk"},
		{name: "fewer markers wins reversed", a: "Buy the milk", b: "Buy [?] milk", expected: "Buy the milk"},
		{name: "tie on markers, longer wins", a: "Buy milk", b: "Buy milk!", expected: "Buy milk!"},
		{name: "full tie, first wins", a: "Buy milk.", b: "Buy milk!", expected: "Buy milk."},
		{name: "length compared in runes not bytes", a: "№5", b: "No 5", expected: "No 5"},
		{name: "multibyte rune tie, first wins", a: "Café", b: "Cafe", expected: "Café"},
		{name: "both empty", a: "", b: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := betterCandidate(tt.a, tt.b); got != tt.expected {
				t.Errorf("betterCandidate(%q, %q) = %q, expected %q", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}
