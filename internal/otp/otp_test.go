package otp

import (
	"testing"
)

func TestGenerate_ReturnsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(code) != Digits {
			t.Fatalf("code length = %d, want %d", len(code), Digits)
		}
		if !WellFormed(code) {
			t.Fatalf("code %q is not numeric", code)
		}
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Errorf("20 codes produced %d distinct values", len(seen))
	}
}

func TestHash_Consistent(t *testing.T) {
	hash1 := Hash("123456")
	hash2 := Hash("123456")
	if hash1 != hash2 {
		t.Errorf("Hash not consistent: %q vs %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
	if Hash("654321") == hash1 {
		t.Error("Hash produced same hash for different inputs")
	}
}

func TestEqual(t *testing.T) {
	stored := Hash("123456")
	if !Equal("123456", stored) {
		t.Error("Equal should match the issued code")
	}
	if Equal("123457", stored) {
		t.Error("Equal should not match a different code")
	}
	if Equal("", stored) {
		t.Error("Equal should not match an empty code")
	}
}

func TestWellFormed(t *testing.T) {
	cases := map[string]bool{
		"000000":  true,
		"123456":  true,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		"":        false,
	}
	for in, want := range cases {
		if got := WellFormed(in); got != want {
			t.Errorf("WellFormed(%q) = %v, want %v", in, got, want)
		}
	}
}
