package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/BearBump/ShipDesk/config"
	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/normalize"
	"golang.org/x/sync/errgroup"
)

type StoreSource interface {
	Stores() []models.StoreCredential
	FetchStoreOutbounds(ctx context.Context, store models.StoreCredential) []models.OutboundShipment
	FetchStoreInbounds(ctx context.Context, store models.StoreCredential) []models.InboundReturn
}

type MockSource interface {
	Outbounds(brand string) []models.OutboundShipment
	Inbounds(brand string) []models.InboundReturn
}

// Service merges per-store results into one date-sorted set.
//
// live: upstream only. mock: generator only, no network. fallback: upstream,
// with the generator substituted for any store that came back empty.
type Service struct {
	src  StoreSource
	mock MockSource
	mode string
}

func New(src StoreSource, mock MockSource, mode string) *Service {
	if mode == "" {
		mode = config.DataModeLive
	}
	if mock == nil && mode != config.DataModeLive {
		mode = config.DataModeLive
	}
	return &Service{src: src, mock: mock, mode: mode}
}

func (s *Service) Mode() string { return s.mode }

func (s *Service) Stores() []models.StoreCredential { return s.src.Stores() }

// FetchAll loads both record sets concurrently.
func (s *Service) FetchAll(ctx context.Context) ([]models.OutboundShipment, []models.InboundReturn) {
	var (
		out []models.OutboundShipment
		in  []models.InboundReturn
		g   errgroup.Group
	)
	g.Go(func() error {
		out = s.FetchAllOutbounds(ctx)
		return nil
	})
	g.Go(func() error {
		in = s.FetchAllInbounds(ctx)
		return nil
	})
	_ = g.Wait()
	return out, in
}

func (s *Service) FetchAllOutbounds(ctx context.Context) []models.OutboundShipment {
	stores := s.src.Stores()
	perStore := make([][]models.OutboundShipment, len(stores))

	var g errgroup.Group
	for i, store := range stores {
		g.Go(func() error {
			perStore[i] = s.storeOutbounds(ctx, store)
			return nil
		})
	}
	_ = g.Wait()

	all := make([]models.OutboundShipment, 0, total(perStore))
	for _, recs := range perStore {
		all = append(all, recs...)
	}
	SortOutboundsByDateDesc(all)
	return all
}

func (s *Service) FetchAllInbounds(ctx context.Context) []models.InboundReturn {
	stores := s.src.Stores()
	perStore := make([][]models.InboundReturn, len(stores))

	var g errgroup.Group
	for i, store := range stores {
		g.Go(func() error {
			perStore[i] = s.storeInbounds(ctx, store)
			return nil
		})
	}
	_ = g.Wait()

	all := make([]models.InboundReturn, 0, total(perStore))
	for _, recs := range perStore {
		all = append(all, recs...)
	}
	SortInboundsByDateDesc(all)
	return all
}

func (s *Service) storeOutbounds(ctx context.Context, store models.StoreCredential) []models.OutboundShipment {
	if s.mode == config.DataModeMock {
		return s.mock.Outbounds(store.Name)
	}
	recs := s.src.FetchStoreOutbounds(ctx, store)
	if len(recs) == 0 && s.mode == config.DataModeFallback {
		slog.Info("store returned no outbounds, using mock records", "store", store.Name)
		return s.mock.Outbounds(store.Name)
	}
	return recs
}

func (s *Service) storeInbounds(ctx context.Context, store models.StoreCredential) []models.InboundReturn {
	if s.mode == config.DataModeMock {
		return s.mock.Inbounds(store.Name)
	}
	recs := s.src.FetchStoreInbounds(ctx, store)
	if len(recs) == 0 && s.mode == config.DataModeFallback {
		slog.Info("store returned no inbounds, using mock records", "store", store.Name)
		return s.mock.Inbounds(store.Name)
	}
	return recs
}

func total[T any](parts [][]T) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return n
}

// SortOutboundsByDateDesc orders newest first. Ties keep their input order;
// unparseable dates sort last.
func SortOutboundsByDateDesc(recs []models.OutboundShipment) {
	sort.SliceStable(recs, func(i, j int) bool {
		return dateOf(recs[i].Date).After(dateOf(recs[j].Date))
	})
}

func SortInboundsByDateDesc(recs []models.InboundReturn) {
	sort.SliceStable(recs, func(i, j int) bool {
		return dateOf(recs[i].Date).After(dateOf(recs[j].Date))
	})
}

func dateOf(s string) time.Time {
	t, _ := normalize.ParseDisplayTime(s)
	return t
}
