package htmlsanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Exam on Monday", "Exam on Monday"},
		{"bold", "<b>Exam</b> on Monday", "Exam on Monday"},
		{"script removed", "Hi<script>alert(1)</script>", "Hi"},
		{"entities decoded", "Q&amp;A session", "Q&A session"},
		{"ampersand kept", "Q&A", "Q&A"},
		{"trimmed", "  <p>Notes</p>  ", "Notes"},
		{"link text kept", `<a href="https://x.example">Lecture 3</a>`, "Lecture 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"a < b", true},
		{"a > b", true},
		{"<b>bold</b>", false},
	}
	for _, tt := range tests {
		if got := IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestText_Idempotent(t *testing.T) {
	in := "<i>Week</i> 4 &amp; 5"
	once := Text(in)
	if twice := Text(once); twice != once {
		t.Errorf("Text not idempotent: %q then %q", once, twice)
	}
}
