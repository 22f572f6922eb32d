package dex

import "testing"

func TestMUTF8RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"hello",
		"with\x00nul",
		"emoji \U0001F600 end",
		"\U0010FFFF",
	}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			enc := encodeMUTF8(s)
			got := decodeMUTF8(enc)
			if got != s {
				t.Errorf("round trip mismatch: got %q, want %q", got, s)
			}
		})
	}
}

func TestMUTF8Len(t *testing.T) {
	cases := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"\U0001F600", 2}, // supplementary plane: counted as a surrogate pair
	}
	for _, c := range cases {
		if got := mutf8Len(c.s); got != c.want {
			t.Errorf("mutf8Len(%q) = %d, want %d", c.s, got, c.want)
		}
	}
}

func TestDecodeMUTF8NulEncoding(t *testing.T) {
	got := decodeMUTF8([]byte{0xC0, 0x80})
	if got != "\x00" {
		t.Errorf("got %q, want NUL", got)
	}
}
