// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRegistererReturnsNilMetrics(t *testing.T) {
	m := New(nil)
	assert.Nil(t, m)

	// Nil-receiver methods must not panic.
	m.DeviceCompleted("HDD", true, false, m.DeviceStarted())
	m.ObserveStepDuration(string("shred"), 1.0)
}

func TestDeviceCompleted_IncrementsCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	started := m.DeviceStarted()
	m.DeviceCompleted("HDD", true, false, started)

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() == "sanitize_devices_total" {
			for _, metric := range f.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), total)
}

func TestDeviceCompleted_VerificationFailureIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.DeviceCompleted("SSD", false, true, m.DeviceStarted())

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "sanitize_verification_failures_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.GetMetric(), 1)
	assert.Equal(t, float64(1), found.GetMetric()[0].GetCounter().GetValue())
}
