package aggregator

import (
	"time"

	"github.com/BearBump/ShipDesk/config"
	"github.com/BearBump/ShipDesk/internal/integrations/parcelninja"
	"github.com/BearBump/ShipDesk/internal/integrations/parcelninja/fake"
	"github.com/BearBump/ShipDesk/internal/integrations/resilient"
	"github.com/BearBump/ShipDesk/internal/models"
)

const defaultFetchTimeout = 15 * time.Second

// FromConfig wires the vendor client, its fetcher and the mock generator for the
// configured data mode. rl may be nil (no local rate limit).
func FromConfig(cfg *config.Config, rl resilient.RateLimiter) (*Service, *parcelninja.Client, error) {
	timeout := time.Duration(cfg.ParcelNinja.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	today, err := fake.ParseToday(cfg.ParcelNinja.SimulatedToday)
	if err != nil {
		return nil, nil, err
	}

	f := resilient.New(cfg.ParcelNinja.ForwardURL, timeout).
		WithRateLimit(rl, cfg.ParcelNinja.RateLimitPerMinute)

	client := parcelninja.New(cfg.ParcelNinja.BaseURL, StoreCredentials(cfg), f).
		WithListing(cfg.ParcelNinja.PageSize, cfg.ParcelNinja.LookbackDays).
		WithSearchLookback(cfg.ParcelNinja.SearchLookbackDays)

	gen := fake.New(today, uint64(time.Now().UnixNano()))
	return New(client, gen, cfg.ParcelNinja.DataMode), client, nil
}

func StoreCredentials(cfg *config.Config) []models.StoreCredential {
	out := make([]models.StoreCredential, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		out = append(out, models.StoreCredential{Name: s.Name, StoreID: s.StoreID, Username: s.Username, Password: s.Password})
	}
	return out
}

// BrandNames lists configured store names in config order.
func BrandNames(cfg *config.Config) []string {
	out := make([]string, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		out = append(out, s.Name)
	}
	return out
}
