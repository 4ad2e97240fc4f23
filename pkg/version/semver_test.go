package version

import "testing"

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		semver SemVer
	}{
		{
			name:   "simple",
			input:  "1.2.3",
			want:   "1.2.3",
			semver: SemVer{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:   "with prefix",
			input:  "v2.0.1",
			want:   "2.0.1",
			semver: SemVer{Major: 2, Minor: 0, Patch: 1},
		},
		{
			name:   "prerelease and build",
			input:  "1.0.0-rc.1+exp.sha",
			want:   "1.0.0-rc.1+exp.sha",
			semver: SemVer{Major: 1, Minor: 0, Patch: 0, PreRelease: "rc.1", Build: "exp.sha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}

			if got.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got.String())
			}

			if got != tt.semver {
				t.Fatalf("expected %#v, got %#v", tt.semver, got)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"1",
		"1.0",
		"1.0.0.0",
		"01.0.0",
		"1.0.0-01",
		"v1.0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Fatalf("expected parse error for %q", input)
			}
		})
	}
}
