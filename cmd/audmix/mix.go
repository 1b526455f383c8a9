// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ik5/audmix"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type mixFlags struct {
	output  string
	volumes []uint
}

func newMixCmd(a *app) *cobra.Command {
	var f mixFlags

	cmd := &cobra.Command{
		Use:   "mix -o OUTPUT [-v VOLUME]... FILE...",
		Short: "Mix files into one WAV",
		Long: `Mix decodes every FILE, picking the decoder from the file extension, and
writes their sum to OUTPUT as a 16-bit stereo WAV.

Each -v gives the volume percentage of the file in the same position:
100 keeps it unchanged, 0 mutes it and up to 255 amplifies it. Files
without a -v play at 100.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMix(cmd.Context(), f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "output WAV file")
	flags.UintSliceVarP(&f.volumes, "volume", "v", nil, "volume percentage per file, in order")
	flags.Int("sample-rate", 44100, "sample rate written to the output header")
	flags.Int("decode-workers", 0, "files decoded at once (0 = GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("output")

	_ = a.v.BindPFlag("sample_rate", flags.Lookup("sample-rate"))
	_ = a.v.BindPFlag("decode_workers", flags.Lookup("decode-workers"))

	return cmd
}

func (a *app) runMix(ctx context.Context, f mixFlags, paths []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	volumes := make([]uint8, len(f.volumes))
	for i, v := range f.volumes {
		if v > math.MaxUint8 {
			return fmt.Errorf("volume %d is %d, the maximum is %d", i, v, math.MaxUint8)
		}
		volumes[i] = uint8(v)
	}

	cfg, logger, err := a.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	files := make([]audmix.File, len(paths))
	for i, p := range paths {
		ft, err := audmix.ParseFileType(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[i] = audmix.File{Bytes: data, Type: ft}
	}

	reducer, release, err := newReducer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s backend: %w", cfg.Backend, err)
	}
	defer func() { _ = release() }()

	c, err := audmix.New(ctx, files,
		audmix.WithReducer(reducer),
		audmix.WithSampleRate(cfg.SampleRate),
		audmix.WithDecodeWorkers(cfg.DecodeWorkers),
		audmix.WithLogger(logger),
	)
	if err != nil {
		var de *audmix.DecodeError
		if errors.As(err, &de) {
			return fmt.Errorf("%s: %w", paths[de.Index], de.Err)
		}
		return err
	}

	out, err := os.Create(f.output)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	err = c.CombineTo(ctx, w, volumes)
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.output)
		return err
	}

	logger.Info("mix written",
		zap.String("output", f.output),
		zap.Int("tracks", c.Tracks()),
		zap.String("backend", cfg.Backend),
	)

	return nil
}
