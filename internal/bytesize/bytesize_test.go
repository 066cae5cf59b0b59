package bytesize

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Size{
		"1024":   1024,
		"1KiB":   KiB,
		"2Gi":    2 * GiB,
		"1.5MB":  Size(1.5 * float64(MB)),
		"500B":   500,
		"3TiB":   3 * TiB,
	}

	for input, want := range cases {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := Parse("abc"); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestString(t *testing.T) {
	if got := (2 * GiB).String(); got != "2.00GiB" {
		t.Errorf("String() = %q, want 2.00GiB", got)
	}
}
