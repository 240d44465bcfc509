package digest_test

import (
	"testing"

	"github.com/recapbot/recapbot/internal/digest"
)

func TestParseWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		arg      string
		expected digest.Window
		wantErr  bool
	}{
		{name: "Message count", arg: "50", expected: digest.Window{Latest: 50}},
		{name: "Trailing hours", arg: "6h", expected: digest.Window{Hours: 6}},
		{name: "Whitespace trimmed", arg: " 12 ", expected: digest.Window{Latest: 12}},
		{name: "Count capped at max", arg: "9999", expected: digest.Window{Latest: 500}},
		{name: "Empty", arg: "", wantErr: true},
		{name: "Non-numeric", arg: "abc", wantErr: true},
		{name: "Non-numeric hours", arg: "xh", wantErr: true},
		{name: "Negative count", arg: "-5", wantErr: true},
		{name: "Zero count", arg: "0", wantErr: true},
		{name: "Zero hours", arg: "0h", wantErr: true},
		{name: "Hours out of range", arg: "200h", wantErr: true},
		{name: "Float rejected", arg: "1.5", wantErr: true},
		{name: "Overflow rejected", arg: "999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, err := digest.ParseWindow(tt.arg, 500)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseWindow(%q) = %+v, want error", tt.arg, w)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow(%q) failed: %v", tt.arg, err)
			}
			if w != tt.expected {
				t.Errorf("ParseWindow(%q) = %+v, want %+v", tt.arg, w, tt.expected)
			}
		})
	}
}
