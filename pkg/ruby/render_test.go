package ruby_test

import (
	"testing"

	"github.com/kotoba-app/kotoba/pkg/ruby"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain only", "たべます", "たべます"},
		{"single annotation", "[食](た)べます", "<ruby>食<rt>た</rt></ruby>べます"},
		{
			"mixed",
			"今日は[学校](がっこう)に行く",
			"今日は<ruby>学校<rt>がっこう</rt></ruby>に行く",
		},
		{"empty", "", ""},
		{"malformed stays literal", "[食べます", "[食べます"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ruby.Render(tt.in); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"annotation markup", "[食](た)べます", "食べます"},
		{"rendered ruby", "<ruby>食<rt>た</rt></ruby>べます", "食べます"},
		{"plain only", "たべます", "たべます"},
		{"empty", "", ""},
		{"multiple annotations", "[今日](きょう)は[学校](がっこう)", "今日は学校"},
		{"malformed ruby stays literal", "<ruby>食べます", "<ruby>食べます"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ruby.Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripAfterRenderMatchesStrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"たべます",
		"[食](た)べます",
		"今日は[学校](がっこう)に[行](い)く",
		"I like [sushi](すし)",
	}
	for _, in := range inputs {
		got := ruby.Strip(ruby.Render(in))
		want := ruby.Strip(in)
		if got != want {
			t.Errorf("Strip(Render(%q)) = %q, want %q", in, got, want)
		}
	}
}

func TestStrip_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"[食](た)べます",
		"<ruby>食<rt>た</rt></ruby>べます",
		"plain text",
	}
	for _, in := range inputs {
		once := ruby.Strip(in)
		twice := ruby.Strip(once)
		if once != twice {
			t.Errorf("Strip(%q) not idempotent: %q then %q", in, once, twice)
		}
	}
}
