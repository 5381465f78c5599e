package keyword

import "testing"

func TestExtract_Years(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"single year", "Will Trump win in 2024?", []string{"year_2024"}},
		{"two years", "Election 2024 vs 2028 rematch", []string{"year_2024", "year_2028"}},
		{"no year", "Will Bitcoin hit $100k?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.title)
			for _, y := range tt.want {
				if !got.Years.Has(y) {
					t.Errorf("%q: expected year token %q, got %v", tt.title, y, got.Years.Slice())
				}
			}
			if len(tt.want) == 0 && len(got.Years) != 0 {
				t.Errorf("%q: expected no year tokens, got %v", tt.title, got.Years.Slice())
			}
		})
	}
}

func TestExtract_Entities(t *testing.T) {
	got := Extract("Will Trump remain president through 2028?")
	if !got.Entities.Has("trump") {
		t.Errorf("expected trump entity, got %v", got.Entities.Slice())
	}
	if got.Words.Has("trump") {
		t.Error("entity tokens must not also appear in words")
	}
}

func TestExtract_StopWordsAndShortTokensDropped(t *testing.T) {
	got := Extract("Will the a GTA 6 be released by 2027?")
	if got.Words.Has("the") || got.Words.Has("a") || got.Words.Has("by") {
		t.Errorf("stop words leaked into words set: %v", got.Words.Slice())
	}
	if got.Words.Has("6") {
		t.Error("pure-digit remnants must be dropped")
	}
}

func TestExtract_CoreWordsExcludesEntities(t *testing.T) {
	got := Extract("Will Trump deport people by 2026?")
	core := got.CoreWords()
	if core.Has("trump") {
		t.Error("core words must exclude entities")
	}
	if !core.Has("deport") {
		t.Errorf("expected 'deport' in core words, got %v", core.Slice())
	}
}

func TestExtract_Idempotent(t *testing.T) {
	title := "Will Bitcoin hit $100,000 by end of 2025?"
	a := Extract(title)
	b := Extract(title)

	if a.Words.Jaccard(b.Words) != 1.0 {
		t.Error("extraction must be deterministic across calls")
	}
	if !a.Years.Has("year_2025") || !b.Years.Has("year_2025") {
		t.Error("expected year_2025 on both extractions")
	}
}

func TestSet_Jaccard(t *testing.T) {
	a := NewSet("x", "y", "z")
	b := NewSet("y", "z", "w")

	got := a.Jaccard(b)
	want := 2.0 / 4.0
	if got != want {
		t.Errorf("Jaccard = %v, want %v", got, want)
	}
}

func TestSet_Disjoint(t *testing.T) {
	a := NewSet("year_2024")
	b := NewSet("year_2028")

	if !a.Disjoint(b) {
		t.Error("expected disjoint year sets")
	}

	c := NewSet("year_2024", "year_2028")
	if a.Disjoint(c) {
		t.Error("expected non-disjoint overlap")
	}
}
