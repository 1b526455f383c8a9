// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
)

func readAll(t *testing.T, data []byte) ([]float32, int, int) {
	t.Helper()

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	var out []float32
	buf := make([]float32, 3)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	return out, src.SampleRate(), src.Channels()
}

func TestDecoder_Mono(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV16(8000, 1, []int16{0, 16384, -16384, 32767, -32768})
	got, rate, channels := readAll(t, data)

	if rate != 8000 || channels != 1 {
		t.Errorf("metadata = (%d Hz, %d ch), want (8000 Hz, 1 ch)", rate, channels)
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecoder_Stereo(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV16(44100, 2, []int16{100, -100, 200, -200})
	got, rate, channels := readAll(t, data)

	if rate != 44100 || channels != 2 {
		t.Errorf("metadata = (%d Hz, %d ch), want (44100 Hz, 2 ch)", rate, channels)
	}
	if len(got) != 4 {
		t.Fatalf("decoded %d samples, want 4", len(got))
	}
	if got[1] != -100.0/32768.0 {
		t.Errorf("sample[1] = %v, want %v", got[1], -100.0/32768.0)
	}
}

func TestDecoder_EmptyData(t *testing.T) {
	t.Parallel()

	got, _, _ := readAll(t, audiotest.WAV16(8000, 2, nil))
	if len(got) != 0 {
		t.Errorf("decoded %d samples from empty data chunk", len(got))
	}
}

func TestDecoder_Float32(t *testing.T) {
	t.Parallel()

	data := audiotest.WAVFloat32(48000, 2, []float32{0, 0.25, -0.5, 1, -1, 1.25})
	got, rate, channels := readAll(t, data)

	if rate != 48000 || channels != 2 {
		t.Errorf("metadata = (%d Hz, %d ch), want (48000 Hz, 2 ch)", rate, channels)
	}

	// Out-of-range samples pass through; the mix clips when quantizing.
	want := []float32{0, 0.25, -0.5, 1, -1, 1.25}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecoder_Unsigned8(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV8(8000, 1, []uint8{128, 192, 64, 0, 255})
	got, _, channels := readAll(t, data)

	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}

	want := []float32{0, 0.5, -0.5, -1, 127.0 / 128}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecoder_NotSeekable(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV16(8000, 1, []int16{1, 2, 3})
	r := struct{ io.Reader }{bytes.NewReader(data)}

	src, err := Decoder{}.Decode(r)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", src.SampleRate())
	}
}

func TestDecoder_Rejects(t *testing.T) {
	t.Parallel()

	alaw := audiotest.WAV(8000, 1, 8, 6, []byte{1, 2}) // G.711 A-law
	float16 := audiotest.WAV16(8000, 1, []int16{1, 2})
	float16[20] = audiotest.FormatFloat
	pcm12 := audiotest.WAV(8000, 1, 12, audiotest.FormatPCM, []byte{1, 2, 3, 4})

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"garbage", []byte("This is definitely not a RIFF file at all"), nil},
		{"empty", nil, nil},
		{"compressed payload", alaw, ErrOnlyPCMSupported},
		{"16-bit float", float16, ErrOnlyPCMSupported},
		{"12-bit pcm", pcm12, ErrOnlyPCMSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("Decode() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
