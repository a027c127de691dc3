package budget

import (
	"strings"
	"testing"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short string rounds up to one", "ab", 1},
		{"exact multiple", strings.Repeat("x", 40), 10},
		{"truncating division", strings.Repeat("x", 41), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.in); got != tt.want {
				t.Errorf("Estimate(%d chars) = %d, want %d", len(tt.in), got, tt.want)
			}
		})
	}
}

func TestTrimContext_UnderBudgetUnchanged(t *testing.T) {
	t.Parallel()

	contexts := []string{"[p.1] alpha", "[p.2] beta"}
	got := TrimContext(contexts, 1000)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks, got %d", len(got))
	}
}

func TestTrimContext_DropsTailFirst(t *testing.T) {
	t.Parallel()

	block := strings.Repeat("x", 400) // ~100 tokens each
	contexts := []string{"first " + block, "second " + block, "third " + block}

	got := TrimContext(contexts, 220)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks after trim, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "first") || !strings.HasPrefix(got[1], "second") {
		t.Errorf("trim removed the wrong blocks: %q", got)
	}
}

func TestTrimContext_NeverDropsLastBlock(t *testing.T) {
	t.Parallel()

	contexts := []string{strings.Repeat("x", 10000)}
	got := TrimContext(contexts, 10)
	if len(got) != 1 {
		t.Fatalf("single over-budget block must be kept, got %d blocks", len(got))
	}
}

func TestTrimContext_ZeroBudgetUsesDefault(t *testing.T) {
	t.Parallel()

	contexts := []string{"[p.1] small"}
	got := TrimContext(contexts, 0)
	if len(got) != 1 {
		t.Fatalf("want 1 block, got %d", len(got))
	}
}
