package storage

import (
	"strings"
	"testing"
	"time"
)

func TestNewKeyUniqueWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		key := NewKey(AreaDownload, "workout_info", ".pdf", now)
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestNewKeyLayout(t *testing.T) {
	key := NewKey(AreaUpload, "image", ".jpg", time.UnixMilli(1700000000123))

	if !strings.HasPrefix(key, "upload/image1700000000123-") {
		t.Errorf("unexpected key prefix: %s", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("unexpected key suffix: %s", key)
	}
	if name := Name(key); strings.Contains(name, "/") || !strings.HasPrefix(name, "image") {
		t.Errorf("Name(%q) = %q", key, name)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":      ".jpg",
		"IMAGE/PNG":       ".png",
		"image/webp":      ".webp",
		"image/x-unknown": ".img",
	}
	for in, want := range cases {
		if got := ExtensionFor(in); got != want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}
