package patient

import "testing"

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"ada", "%ada%"},
		{"50%", `%50\%%`},
		{"o_n", `%o\_n%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		if got := containsPattern(tt.in); got != tt.want {
			t.Errorf("containsPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
