package ai

import (
	"bytes"
	"errors"
	"testing"
)

func TestDataURIRoundTrip(t *testing.T) {
	img := Image{Data: []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, MimeType: "image/jpeg"}

	uri := img.DataURI()
	if want := "data:image/jpeg;base64,"; uri[:len(want)] != want {
		t.Fatalf("unexpected data uri prefix: %s", uri)
	}

	got, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI failed: %v", err)
	}
	if !bytes.Equal(got, img.Data) {
		t.Errorf("decoded bytes mismatch: %v", got)
	}
}

func TestParseDataURIRejects(t *testing.T) {
	cases := map[string]string{
		"no header":      "aGVsbG8=",
		"non image":      "data:text/plain;base64,aGVsbG8=",
		"bad base64":     "data:image/png;base64,***",
		"empty payload":  "data:image/png;base64,",
		"missing base64": "data:image/png,aGVsbG8=",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURI(in)
			if !errors.Is(err, ErrInvalidDataURI) {
				t.Fatalf("expected ErrInvalidDataURI, got %v", err)
			}
		})
	}
}
