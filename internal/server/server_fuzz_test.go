package server

import (
	"strings"
	"testing"
)

func FuzzIsSafeName(f *testing.F) {
	for _, s := range []string{"weather", "", "..", "../etc/passwd", "a/b", `a\b`, "unicode한글", "name\x00null"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, name string) {
		ok := isSafeName(name)
		if ok && (name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00")) {
			t.Errorf("unsafe name accepted: %q", name)
		}
	})
}

func FuzzSanitizeBase(f *testing.F) {
	for _, s := range []string{"", "/", "/api", "/api/", "api", "  /api/v1/  ", "//multiple//slashes//"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		got := sanitizeBase(in)
		if got == "" {
			return
		}
		if !strings.HasPrefix(got, "/") || strings.HasSuffix(got, "/") {
			t.Errorf("sanitizeBase(%q) = %q", in, got)
		}
	})
}

func FuzzParseCount(f *testing.F) {
	for _, s := range []string{"", "1", "100", "-1", "abc", "99999999999999999999"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		n, ok := parseCount(in, 100, 10000)
		if ok && (n < 1 || n > 10000) {
			t.Errorf("parseCount(%q) = %d", in, n)
		}
	})
}
