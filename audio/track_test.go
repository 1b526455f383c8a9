// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"slices"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
)

func TestReadTrack_Mono(t *testing.T) {
	t.Parallel()

	track, err := ReadTrack(audiotest.NewSliceSource(22050, 1, []float32{1, 2, 3}))
	if err != nil {
		t.Fatalf("ReadTrack() error = %v", err)
	}

	want := []float32{1, 1, 2, 2, 3, 3}
	if !slices.Equal(track.Samples, want) {
		t.Errorf("Samples = %v, want %v", track.Samples, want)
	}
	if track.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", track.SampleRate)
	}
	if track.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", track.Frames())
	}
}

func TestReadTrack_LongerThanBuffer(t *testing.T) {
	t.Parallel()

	const frames = 10000
	track, err := ReadTrack(audiotest.NewConstantSource(44100, 2, frames, 0.5))
	if err != nil {
		t.Fatalf("ReadTrack() error = %v", err)
	}
	if track.Len() != frames*2 {
		t.Errorf("Len() = %d, want %d", track.Len(), frames*2)
	}
}

func TestReadTrack_DoesNotClamp(t *testing.T) {
	t.Parallel()

	track, err := ReadTrack(audiotest.NewConstantSource(8000, 2, 4, 1.5))
	if err != nil {
		t.Fatalf("ReadTrack() error = %v", err)
	}
	for i, v := range track.Samples {
		if v != 1.5 {
			t.Errorf("Samples[%d] = %v, want 1.5", i, v)
		}
	}
}

func TestReadTrack_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := ReadTrack(&audiotest.FailingSource{Err: boom, Rate: 8000, Chan: 2})
	if !errors.Is(err, boom) {
		t.Errorf("ReadTrack() error = %v, want %v", err, boom)
	}
}

func TestReadTrack_Empty(t *testing.T) {
	t.Parallel()

	track, err := ReadTrack(audiotest.NewSilentSource(8000, 1, 0))
	if err != nil {
		t.Fatalf("ReadTrack() error = %v", err)
	}
	if track.Len() != 0 {
		t.Errorf("Len() = %d, want 0", track.Len())
	}
}

func TestTrack_At(t *testing.T) {
	t.Parallel()

	track, err := NewTrack([]float32{0.5, -0.5}, 44100)
	if err != nil {
		t.Fatalf("NewTrack() error = %v", err)
	}

	if track.At(1) != -0.5 {
		t.Errorf("At(1) = %v, want -0.5", track.At(1))
	}
	if track.At(2) != 0 {
		t.Errorf("At(2) = %v, want silence", track.At(2))
	}
}

func TestNewTrack_OddLength(t *testing.T) {
	t.Parallel()

	if _, err := NewTrack([]float32{1, 2, 3}, 8000); !errors.Is(err, ErrOddTrackSize) {
		t.Errorf("NewTrack() error = %v, want ErrOddTrackSize", err)
	}
}
