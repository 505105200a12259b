package aggregator

import (
	"context"
	"testing"

	"github.com/BearBump/ShipDesk/config"
	"github.com/stretchr/testify/require"
)

func TestFromConfig_MockMode(t *testing.T) {
	cfg := &config.Config{
		ParcelNinja: config.ParcelNinjaConfig{DataMode: config.DataModeMock, SimulatedToday: "2025-12-14"},
		Stores: []config.StoreConfig{
			{Name: "Diesel", StoreID: "1", Username: "u", Password: "p"},
			{Name: "Hurley", StoreID: "2"},
		},
	}
	svc, client, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, config.DataModeMock, svc.Mode())
	require.Equal(t, "u", client.Stores()[0].Username)
	require.Equal(t, []string{"Diesel", "Hurley"}, BrandNames(cfg))

	out, in := svc.FetchAll(context.Background())
	require.Len(t, out, 30)
	require.Len(t, in, 20)
	// mock mode never touches the network
	require.Equal(t, int64(0), client.Stats().TotalRequests)
}

func TestFromConfig_DefaultsToLive(t *testing.T) {
	svc, _, err := FromConfig(&config.Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, config.DataModeLive, svc.Mode())
}

func TestFromConfig_BadSimulatedToday(t *testing.T) {
	cfg := &config.Config{ParcelNinja: config.ParcelNinjaConfig{SimulatedToday: "14.12.2025"}}
	_, _, err := FromConfig(cfg, nil)
	require.Error(t, err)
}
