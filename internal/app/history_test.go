package app

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/droidprune/internal/store"
)

func TestFindRun(t *testing.T) {
	runs := []*store.Run{
		{ID: "3f2a9c1e-0000-4000-8000-000000000001"},
		{ID: "3f2a9c1e-0000-4000-8000-000000000002"},
		{ID: "a1b2c3d4-0000-4000-8000-000000000003"},
	}

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr string
	}{
		{name: "full id", id: runs[1].ID, want: runs[1].ID},
		{name: "unique prefix", id: "a1b2", want: runs[2].ID},
		{name: "ambiguous prefix", id: "3f2a9c1e", wantErr: "ambiguous"},
		{name: "missing", id: "ffff", wantErr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findRun(runs, tt.id)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("findRun(%q) error = %v, want %q", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("findRun(%q): %v", tt.id, err)
			}
			if got.ID != tt.want {
				t.Errorf("findRun(%q) = %s, want %s", tt.id, got.ID, tt.want)
			}
		})
	}
}
