package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("héllo", 2); got != "hé..." {
		t.Errorf("multibyte truncate got %q", got)
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, policy, want string
	}{
		{"  Hello   World \n", PreprocessLowercase, "hello world"},
		{"ÉCOLE\tParis", PreprocessLowercase, "école paris"},
		{"", PreprocessLowercase, ""},
		{"  Keep  As Is ", PreprocessNone, "  Keep  As Is "},
		{"Other", "", "Other"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in, tt.policy); got != tt.want {
			t.Errorf("Preprocess(%q, %q) = %q, want %q", tt.in, tt.policy, got, tt.want)
		}
	}
}

func TestPreprocess_Idempotent(t *testing.T) {
	once := Preprocess(" A  b C ", PreprocessLowercase)
	if Preprocess(once, PreprocessLowercase) != once {
		t.Errorf("preprocess not idempotent: %q", once)
	}
}
