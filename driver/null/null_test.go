// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package null_test

import (
	"testing"

	"github.com/ardenne/forgeplus/driver"
	_ "github.com/ardenne/forgeplus/driver/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findNull(t *testing.T) driver.Driver {
	t.Helper()
	for _, d := range driver.Drivers() {
		if d.Name() == "null" {
			return d
		}
	}
	t.Fatal("null driver not registered")
	return nil
}

func TestOpenReturnsSameGPUOnRepeatedCalls(t *testing.T) {
	drv := findNull(t)
	g1, err := drv.Open()
	require.NoError(t, err)
	g2, err := drv.Open()
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.Equal(t, drv, g1.Driver())
}

func TestVisibleBufferIsReadWriteMemory(t *testing.T) {
	drv := findNull(t)
	gpu, err := drv.Open()
	require.NoError(t, err)

	buf, err := gpu.NewBuffer(64, true, driver.UShaderConst)
	require.NoError(t, err)
	require.True(t, buf.Visible())
	require.Len(t, buf.Bytes(), 64)
	buf.Bytes()[0] = 0xAB
	assert.EqualValues(t, 0xAB, buf.Bytes()[0])
}

func TestNonVisibleBufferHasNoBytes(t *testing.T) {
	drv := findNull(t)
	gpu, err := drv.Open()
	require.NoError(t, err)

	buf, err := gpu.NewBuffer(64, false, driver.UShaderConst)
	require.NoError(t, err)
	assert.False(t, buf.Visible())
	assert.Nil(t, buf.Bytes())
}

func TestCommitReportsSuccessImmediately(t *testing.T) {
	drv := findNull(t)
	gpu, err := drv.Open()
	require.NoError(t, err)

	cb, err := gpu.NewCmdBuffer()
	require.NoError(t, err)
	ch := make(chan error, 1)
	gpu.Commit([]driver.CmdBuffer{cb}, ch)
	require.NoError(t, <-ch)
}
