// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestEncode_Header(t *testing.T) {
	t.Parallel()

	const (
		rate = 48000
		n    = 10
	)
	out := Encode(make([]float32, n), rate)

	if len(out) != HeaderSize+2*n {
		t.Fatalf("len = %d, want %d", len(out), HeaderSize+2*n)
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(out[4:8]), 36 + 2*n},
		{"fmt size", binary.LittleEndian.Uint32(out[16:20]), 16},
		{"format", uint32(binary.LittleEndian.Uint16(out[20:22])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(out[22:24])), 2},
		{"sample rate", binary.LittleEndian.Uint32(out[24:28]), rate},
		{"byte rate", binary.LittleEndian.Uint32(out[28:32]), 4 * rate},
		{"block align", uint32(binary.LittleEndian.Uint16(out[32:34])), 4},
		{"bits", uint32(binary.LittleEndian.Uint16(out[34:36])), 16},
		{"data size", binary.LittleEndian.Uint32(out[40:44]), 2 * n},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	for _, tag := range []struct {
		at   int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(out[tag.at : tag.at+4]); got != tag.want {
			t.Errorf("tag at %d = %q, want %q", tag.at, got, tag.want)
		}
	}
}

func TestEncode_Silence(t *testing.T) {
	t.Parallel()

	out := Encode(make([]float32, 64), 44100)
	for i, b := range out[HeaderSize:] {
		if b != 0 {
			t.Fatalf("data byte %d = %d, want 0", i, b)
		}
	}
}

func TestEncode_Quantization(t *testing.T) {
	t.Parallel()

	in := []float32{1, -1, 2, -2, 0.5}
	out := Encode(in, 8000)

	want := []int16{math.MaxInt16, -math.MaxInt16, math.MaxInt16, -math.MaxInt16, 16383}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[HeaderSize+2*i:]))
		if got != w {
			t.Errorf("sample[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestEncode_SpansChunks(t *testing.T) {
	t.Parallel()

	in := make([]float32, 8192*2+3)
	for i := range in {
		in[i] = 0.25
	}
	out := Encode(in, 8000)

	if len(out) != HeaderSize+2*len(in) {
		t.Fatalf("len = %d, want %d", len(out), HeaderSize+2*len(in))
	}
	last := int16(binary.LittleEndian.Uint16(out[len(out)-2:]))
	if last != 8191 {
		t.Errorf("last sample = %d, want 8191", last)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0, 0.5, -0.5, 0.25}
	got, rate, channels := readAll(t, Encode(in, 22050))

	if rate != 22050 || channels != 2 {
		t.Errorf("decoded metadata = (%d, %d), want (22050, 2)", rate, channels)
	}
	for i := range in {
		if math.Abs(float64(got[i]-in[i])) > 1.0/16384 {
			t.Errorf("sample[%d] = %v, want ~%v", i, got[i], in[i])
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()

	in := []float32{0.1, 0.2, 0.3, 0.4}
	if !bytes.Equal(Encode(in, 44100), Encode(in, 44100)) {
		t.Error("Encode() output differs between calls")
	}
}

type failWriter struct{ after int }

func (f *failWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("disk full")
	}
	f.after--
	return len(p), nil
}

func TestWriteStereo16_WriteErrors(t *testing.T) {
	t.Parallel()

	if err := WriteStereo16(&failWriter{after: 0}, 8000, []float32{0}); err == nil {
		t.Error("WriteStereo16() header write error = nil")
	}
	if err := WriteStereo16(&failWriter{after: 1}, 8000, []float32{0}); err == nil {
		t.Error("WriteStereo16() body write error = nil")
	}
}

func BenchmarkEncode(b *testing.B) {
	in := make([]float32, 44100*2)
	for i := range in {
		in[i] = float32(i%200-100) / 100
	}

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_ = Encode(in, 44100)
	}
}
