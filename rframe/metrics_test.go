// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rframe

import (
	"testing"

	"github.com/ardenne/forgeplus/driver"
	"github.com/ardenne/forgeplus/meshpass"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountsCommittedFrame(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	gpu := &fakeGPU{}
	sc := &fakeSwapchain{}
	fd, err := New(gpu, sc, 2)
	require.NoError(t, err)
	fd.SetMetrics(m)

	require.NoError(t, fd.RunFrame(emptyGraph(t), meshpass.NewRegistry(), nil, nil))
	require.Equal(t, 1, testutil.CollectAndCount(m.framesTotal))
	require.InDelta(t, 1, testutil.ToFloat64(m.framesTotal), 0)
}

func TestMetricsCountsClassifiedError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	gpu := &fakeGPU{}
	sc := &fakeSwapchain{presentErr: driver.ErrWindow}
	fd, err := New(gpu, sc, 2)
	require.NoError(t, err)
	fd.SetMetrics(m)

	err = fd.RunFrame(emptyGraph(t), meshpass.NewRegistry(), nil, nil)
	require.Error(t, err)
	require.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues("surface_lost")), 0)
}

func TestNilMetricsIsANoOp(t *testing.T) {
	gpu := &fakeGPU{}
	sc := &fakeSwapchain{}
	fd, err := New(gpu, sc, 2)
	require.NoError(t, err)

	require.NoError(t, fd.RunFrame(emptyGraph(t), meshpass.NewRegistry(), nil, nil))
}
