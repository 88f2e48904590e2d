package codec

import (
	"bytes"
	"errors"
	"testing"
)

type sample struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

func TestCompressRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("統合検索 "), 100)
	out, err := Compress(in)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if !IsCompressed(out) {
		t.Errorf("Compress() output lacks zstd magic: % x", out[:4])
	}
	if len(out) >= len(in) {
		t.Errorf("Compress() did not shrink repetitive input: %d >= %d", len(out), len(in))
	}
	back, err := Decompress(out)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(back, in) {
		t.Error("Decompress(Compress(x)) != x")
	}
}

func TestUnmarshalCompressedAcceptsPlainYAML(t *testing.T) {
	var got sample
	if err := UnmarshalCompressed([]byte("name: memo\nitems: [a, b]\n"), &got); err != nil {
		t.Fatalf("UnmarshalCompressed() error = %v", err)
	}
	if got.Name != "memo" || len(got.Items) != 2 {
		t.Errorf("UnmarshalCompressed() = %+v", got)
	}

	if err := UnmarshalCompressed(nil, &got); !errors.Is(err, ErrEmpty) {
		t.Errorf("UnmarshalCompressed(nil) error = %v, want ErrEmpty", err)
	}
}

func TestMarshalCompressed(t *testing.T) {
	data, err := MarshalCompressed(sample{Name: "トピック", Items: []string{"x"}})
	if err != nil {
		t.Fatalf("MarshalCompressed() error = %v", err)
	}
	var got sample
	if err := UnmarshalCompressed(data, &got); err != nil {
		t.Fatalf("UnmarshalCompressed() error = %v", err)
	}
	if got.Name != "トピック" || len(got.Items) != 1 || got.Items[0] != "x" {
		t.Errorf("UnmarshalCompressed() = %+v", got)
	}
}
