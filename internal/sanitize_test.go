package internal

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Happy to help with Go", "Happy to help with Go"},
		{"markup", "<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"script", "<script>alert(1)</script>hello", "hello"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"whitespace", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
