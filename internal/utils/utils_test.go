package utils

import "testing"

func TestFormatBirr(t *testing.T) {
	cases := map[int64]string{
		0:       "0 ETB",
		800:     "800 ETB",
		1600:    "1,600 ETB",
		1234567: "1,234,567 ETB",
		-2500:   "-2,500 ETB",
	}
	for in, want := range cases {
		if got := FormatBirr(in); got != want {
			t.Fatalf("FormatBirr(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestSafeFilenamePart(t *testing.T) {
	if got := SafeFilenamePart(" Addis Ababa/Gondar "); got != "Addis_Ababa_Gondar" {
		t.Fatalf("got %q", got)
	}
	if got := SafeFilenamePart(""); got != "NA" {
		t.Fatalf("got %q", got)
	}
}
