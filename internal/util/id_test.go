package util

import (
	"testing"
	"time"
)

func TestTimestampID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := TimestampID(at); got != "1700000000123" {
		t.Fatalf("TimestampID() = %q", got)
	}
}

func TestNewIDPrefix(t *testing.T) {
	id := NewID("req")
	if len(id) != len("req_")+16 || id[:4] != "req_" {
		t.Fatalf("unexpected id %q", id)
	}
	if NewID("") == NewID("") {
		t.Fatal("expected distinct ids")
	}
}

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":           "photo.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\a b.jpg`: "a_b.jpg",
		"":                    "file",
		"..":                  "file",
		"dir/":                "dir",
	}
	for in, want := range cases {
		if got := SafeFilename(in); got != want {
			t.Errorf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
