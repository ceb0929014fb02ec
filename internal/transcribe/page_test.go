package transcribe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/inkmark-app/inkmark/internal/providers"
)

func twoLinePage(t *testing.T) []byte {
	t.Helper()
	return notePage(t, 200, 400, [2]int{50, 80}, [2]int{150, 180})
}

// twoLines scripts "Line one" for the first slice's readings and "Line two"
// for the second's.
func twoLines(call int, _ string) (string, error) {
	if call <= 2 {
		return "Line one", nil
	}
	return "Line two", nil
}

func TestTranscribePageJoinsLines(t *testing.T) {
	fake := &fakeClient{transcribe: twoLines}
	e := New(fake, testOpts())

	got, err := e.TranscribePage(context.Background(), twoLinePage(t), nil)
	if err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}
	if got != "Line one\nLine two" {
		t.Errorf("page text = %q", got)
	}
	if n := fake.formats.Load(); n != 1 {
		t.Errorf("format calls = %d", n)
	}
}

func TestTranscribePageAcceptsWordPreservingFormat(t *testing.T) {
	fake := &fakeClient{
		transcribe: twoLines,
		format: func(string) (string, error) {
			return "# Line one\n\n- Line two", nil
		},
	}
	e := New(fake, testOpts())

	got, err := e.TranscribePage(context.Background(), twoLinePage(t), nil)
	if err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}
	if got != "# Line one\n\n- Line two" {
		t.Errorf("page text = %q, markdown-only changes should be accepted", got)
	}
}

func TestTranscribePageRejectsDroppedWord(t *testing.T) {
	fake := &fakeClient{
		transcribe: twoLines,
		format: func(string) (string, error) {
			return "Line one\nLine", nil
		},
	}
	e := New(fake, testOpts())

	got, err := e.TranscribePage(context.Background(), twoLinePage(t), nil)
	if err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}
	if got != "Line one\nLine two" {
		t.Errorf("page text = %q, word-dropping reformat must be discarded", got)
	}
}

func TestTranscribePageRejectsAddedWord(t *testing.T) {
	fake := &fakeClient{
		transcribe: twoLines,
		format: func(string) (string, error) {
			return "Line one\nLine two extra", nil
		},
	}
	e := New(fake, testOpts())

	got, err := e.TranscribePage(context.Background(), twoLinePage(t), nil)
	if err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}
	if got != "Line one\nLine two" {
		t.Errorf("page text = %q, word-adding reformat must be discarded", got)
	}
}

func TestTranscribePageEmptyIsNotAnError(t *testing.T) {
	fake := &fakeClient{}
	e := New(fake, testOpts())

	got, err := e.TranscribePage(context.Background(), notePage(t, 100, 200), nil)
	if err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}
	if got != "" {
		t.Errorf("page text = %q, expected empty for a blank page", got)
	}
	if n := fake.formats.Load(); n != 0 {
		t.Errorf("format called %d times for an empty page", n)
	}
}

func TestTranscribePageLineProgress(t *testing.T) {
	fake := &fakeClient{transcribe: twoLines}
	e := New(fake, testOpts())

	var mu sync.Mutex
	type update struct{ completed, total int }
	var lines []update
	var phases []string

	progress := &Progress{
		Segment: func(phase string, _ float64) {
			mu.Lock()
			phases = append(phases, phase)
			mu.Unlock()
		},
		Lines: func(completed, total int) {
			mu.Lock()
			lines = append(lines, update{completed, total})
			mu.Unlock()
		},
	}

	if _, err := e.TranscribePage(context.Background(), twoLinePage(t), progress); err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}

	want := []update{{1, 2}, {2, 2}}
	if len(lines) != len(want) {
		t.Fatalf("line updates = %v", lines)
	}
	for i, u := range lines {
		if u != want[i] {
			t.Errorf("update %d = %v, expected %v", i, u, want[i])
		}
	}
	if len(phases) == 0 {
		t.Error("segmentation phases never reported")
	}
}

func TestTranscribePageRetriesRecoverable(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(call int, _ string) (string, error) {
			if call == 1 {
				return "", &providers.Error{Provider: "fake", StatusCode: 500, Message: "upstream"}
			}
			return "Line", nil
		},
	}
	opts := testOpts()
	opts.MaxPageRetries = 1
	e := New(fake, opts)

	got, err := e.TranscribePage(context.Background(), notePage(t, 200, 300, [2]int{50, 80}), nil)
	if err != nil {
		t.Fatalf("TranscribePage: %v", err)
	}
	if got != "Line" {
		t.Errorf("page text = %q", got)
	}
	if n := fake.transcribes.Load(); n != 3 {
		t.Errorf("transcribe calls = %d, expected a fresh page attempt after the failure", n)
	}
}

func TestTranscribePageNonRecoverableFailsFast(t *testing.T) {
	fake := &fakeClient{
		transcribe: func(int, string) (string, error) {
			return "", &providers.Error{Provider: "fake", StatusCode: 404, Message: "no model"}
		},
	}
	opts := testOpts()
	opts.MaxPageRetries = 2
	e := New(fake, opts)

	_, err := e.TranscribePage(context.Background(), notePage(t, 200, 300, [2]int{50, 80}), nil)
	var pe *providers.Error
	if !errors.As(err, &pe) || pe.StatusCode != 404 {
		t.Fatalf("expected the 404 to surface, got %v", err)
	}
	if n := fake.transcribes.Load(); n != 1 {
		t.Errorf("transcribe calls = %d, expected no page rerun", n)
	}
}

func TestTranscribePageCancelBetweenLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fake := &fakeClient{transcribe: twoLines}
	e := New(fake, testOpts())

	progress := &Progress{
		Lines: func(completed, _ int) {
			if completed == 1 {
				cancel()
			}
		},
	}

	_, err := e.TranscribePage(ctx, twoLinePage(t), progress)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := fake.transcribes.Load(); n != 2 {
		t.Errorf("transcribe calls = %d, expected the second line to never start", n)
	}
}

func TestWordsPreserved(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		formatted string
		expected  bool
	}{
		{name: "identical", raw: "Buy milk", formatted: "Buy milk", expected: true},
		{name: "markdown decoration", raw: "Shopping list\nBuy milk", formatted: "# Shopping list\n\n- Buy milk", expected: true},
		{name: "case change", raw: "BUY MILK", formatted: "buy milk", expected: true},
		{name: "punctuation change", raw: "Buy milk", formatted: "Buy milk!!!", expected: true},
		{name: "marker kept", raw: "Call [?] now", formatted: "Call [?] now", expected: true},
		{name: "dropped word", raw: "Buy fresh milk", formatted: "Buy milk", expected: false},
		{name: "added word", raw: "Buy milk", formatted: "Buy fresh milk", expected: false},
		{name: "reordered words", raw: "milk Buy", formatted: "Buy milk", expected: false},
		{name: "marker dropped", raw: "Call [?] now", formatted: "Call now", expected: false},
		{name: "empty formatted", raw: "Buy milk", formatted: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wordsPreserved(tt.raw, tt.formatted); got != tt.expected {
				t.Errorf("wordsPreserved(%q, %q) = %v, expected %v", tt.raw, tt.formatted, got, tt.expected)
			}
		})
	}
}
