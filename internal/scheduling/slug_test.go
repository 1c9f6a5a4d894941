package scheduling

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Intro Call", "intro-call"},
		{"Quick Chat (30 min)", "quick-chat-30-min"},
		{"  spaced  out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"CAPS & Symbols!!", "caps-symbols"},
		{"30/60/90", "30-60-90"},
		{"???", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"a", "intro-call", "call-2", "30min"}
	for _, s := range valid {
		if !validSlug(s) {
			t.Errorf("validSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "-lead", "trail-", "dou--ble", "Upper", "with space", "dot.com"}
	for _, s := range invalid {
		if validSlug(s) {
			t.Errorf("validSlug(%q) = true, want false", s)
		}
	}
}
