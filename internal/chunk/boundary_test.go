package chunk

import (
	"testing"
)

func TestParseBoundariesAcceptedForms(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"raw json", `{"boundaries":[1,2]}`},
		{"fenced block", "```json\n{\"boundaries\":[1,2]}\n```"},
		{"narrative text", `Here are the cuts {"boundaries":[1,2]} as requested.`},
		{"trailing comma", `{"boundaries":[1,2,]}`},
		{"comment and numeric string", `{ /*c*/ "boundaries":[1,"2"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoundaries(tt.reply)
			if err != nil {
				t.Fatalf("ParseBoundaries failed: %v", err)
			}
			if len(got) != 2 || got[0] != 1 || got[1] != 2 {
				t.Errorf("got %v, want [1 2]", got)
			}
		})
	}
}

func TestParseBoundariesSkipsInvalidEntries(t *testing.T) {
	got, err := ParseBoundaries(`{"boundaries":[10,"oops",null,20,true]}`)
	if err != nil {
		t.Fatalf("ParseBoundaries failed: %v", err)
	}
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("got %v, want [10 20]", got)
	}
}

func TestParseBoundariesNoJSON(t *testing.T) {
	if _, err := ParseBoundaries("I could not find any boundaries."); err == nil {
		t.Error("expected error for a reply without JSON")
	}
}

func TestCutAt(t *testing.T) {
	piece := "abcdefghij"

	chunks := cutAt(piece, []int{3, 7})
	want := []string{"abc", "defg", "hij"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestCutAtDiscardsOutOfRange(t *testing.T) {
	piece := "abcdefghij"

	chunks := cutAt(piece, []int{0, -5, 5, 10, 99})
	want := []string{"abcde", "fghij"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}
