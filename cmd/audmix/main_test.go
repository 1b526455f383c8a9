// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/internal/audiotest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInputs(t *testing.T) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	ramp := make([]int16, 4000)
	for i := range ramp {
		ramp[i] = int16(i*16 - 32000)
	}

	inputs := map[string][]byte{
		"voice.wav": audiotest.WAV16(44100, 2, ramp),
		"music.WAV": audiotest.WAV16(44100, 1, ramp[:1500]),
	}
	paths := make([]string, 0, len(inputs))
	for _, name := range []string{"voice.wav", "music.WAV"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, inputs[name], 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	return dir, paths
}

func TestMix_Backends(t *testing.T) {
	t.Parallel()

	dir, inputs := writeInputs(t)

	outputs := map[string][]byte{}
	for _, backend := range []string{"cpu", "gpu"} {
		out := filepath.Join(dir, backend+".wav")
		args := append([]string{"mix", "--backend", backend, "--gpu-device", "software", "-o", out, "-v", "80", "-v", "50"}, inputs...)
		if msg, err := run(t, args...); err != nil {
			t.Fatalf("%s: mix error = %v\n%s", backend, err, msg)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		outputs[backend] = data
	}

	if !bytes.Equal(outputs["cpu"], outputs["gpu"]) {
		t.Error("cpu and gpu backends wrote different files")
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(outputs["cpu"]))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if src.Channels() != 2 || src.SampleRate() != 44100 {
		t.Errorf("output is %d ch at %d Hz", src.Channels(), src.SampleRate())
	}
	if want := wav.HeaderSize + 4000*2; len(outputs["cpu"]) != want {
		t.Errorf("output is %d bytes, want %d", len(outputs["cpu"]), want)
	}
}

func TestMix_SampleRateFlag(t *testing.T) {
	t.Parallel()

	dir, inputs := writeInputs(t)
	out := filepath.Join(dir, "out.wav")

	if msg, err := run(t, append([]string{"mix", "-o", out, "--sample-rate", "48000"}, inputs...)...); err != nil {
		t.Fatalf("mix error = %v\n%s", err, msg)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	src, err := wav.Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if src.SampleRate() != 48000 {
		t.Errorf("sample rate = %d, want 48000", src.SampleRate())
	}
}

func TestMix_Errors(t *testing.T) {
	t.Parallel()

	dir, inputs := writeInputs(t)
	out := filepath.Join(dir, "out.wav")

	broken := filepath.Join(dir, "broken.ogg")
	if err := os.WriteFile(broken, []byte("OggS but not really"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no output", append([]string{"mix"}, inputs...), "output"},
		{"no inputs", []string{"mix", "-o", out}, "arg"},
		{"loud volume", append([]string{"mix", "-o", out, "-v", "300"}, inputs...), "maximum"},
		{"unknown extension", []string{"mix", "-o", out, filepath.Join(dir, "x.flac")}, "unsupported"},
		{"unknown backend", append([]string{"mix", "--backend", "tpu", "-o", out}, inputs...), "backend"},
		{"unknown gpu device", append([]string{"mix", "--backend", "gpu", "--gpu-device", "fpga", "-o", out}, inputs...), "gpu.device"},
		{"decode failure names the file", append([]string{"mix", "-o", out}, inputs[0], broken), "broken.ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("mix succeeded")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("failed runs left an output file behind")
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "audmix version dev") {
		t.Errorf("version output = %q", out)
	}
}
