// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/ik5/audmix/gpu"
	"github.com/ik5/audmix/gpu/halgpu"
	"github.com/ik5/audmix/gpu/softgpu"
	"github.com/ik5/audmix/internal/config"
	"github.com/ik5/audmix/mix"
	"go.uber.org/zap"
)

// newReducer builds the backend named in cfg. The returned function
// releases it.
func newReducer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (mix.Reducer, func() error, error) {
	switch cfg.Backend {
	case config.BackendCPU:
		r := mix.NewCPUReducer(
			mix.WithChunkSize(cfg.Mix.ChunkSize),
			mix.WithWorkers(cfg.Mix.Workers),
			mix.WithLogger(logger),
		)
		return r, func() error { return nil }, nil

	case config.BackendGPU:
		var adapter gpu.Adapter = halgpu.Adapter{}
		if cfg.GPU.Device == config.DeviceSoftware {
			adapter = softgpu.Adapter{}
		}

		dev, err := gpu.OpenDevice(ctx, adapter)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("gpu device open",
			zap.String("device", cfg.GPU.Device),
			zap.Uint32("max_workgroups", dev.Limits().MaxWorkgroupsPerDimension),
		)

		// The reducer owns dev from here, failure included.
		r, err := mix.NewGPUReducer(dev,
			mix.WithWorkgroupSize(cfg.GPU.WorkgroupSize),
			mix.WithMaxGroupsX(cfg.GPU.MaxGroupsX),
			mix.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
