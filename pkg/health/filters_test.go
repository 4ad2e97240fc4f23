package health

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFiltersChecker(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}
	valid := write("valid.yaml", "filters:\n  top:\n    where:\n      - field: score\n        op: \">\"\n        value: 3\n  recent:\n    limit: 5\n")
	invalid := write("invalid.yaml", "filters:\n  x:\n    where:\n      - field: score\n        op: approx\n        value: 1\n")

	tests := []struct {
		name       string
		path       string
		wantStatus Status
		wantText   string
	}{
		{name: "not configured", path: "", wantStatus: StatusHealthy, wantText: "no filters file configured"},
		{name: "valid file", path: valid, wantStatus: StatusHealthy, wantText: "2 named filter(s)"},
		{name: "invalid comparison", path: invalid, wantStatus: StatusUnhealthy, wantText: "unsupported comparison"},
		{name: "missing file", path: filepath.Join(dir, "none.yaml"), wantStatus: StatusUnhealthy, wantText: "open filters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewFiltersChecker("filters", tt.path).Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s (%+v)", result.Status, tt.wantStatus, result)
			}
			text := result.Message
			if result.Status == StatusUnhealthy {
				text = result.Error
			}
			if !strings.Contains(text, tt.wantText) {
				t.Fatalf("text = %q, want it to contain %q", text, tt.wantText)
			}
		})
	}
}
