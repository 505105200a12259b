package xref

import (
	"context"
	"log/slog"
	"strings"

	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/normalize"
	"github.com/pkg/errors"
)

var (
	ErrNoRecords    = errors.New("no records found")
	ErrSearchFailed = errors.New("search failed")
)

type RemoteSearcher interface {
	FindOutboundByRef(ctx context.Context, term string) (*models.OutboundShipment, error)
	FindInboundByRef(ctx context.Context, term string) (*models.InboundReturn, error)
}

type Outcome string

const (
	OutcomeFound        Outcome = "found"
	OutcomeFoundInbound Outcome = "found_inbound"
	OutcomeNotFound     Outcome = "not_found"
)

type Link string

const (
	LinkFound         Link = "linked"
	LinkNotApplicable Link = "not_applicable"
)

const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Result of one search. Found carries the matched outbound and, in Inbound, its
// linked return. FoundInbound carries the matched return and, in Outbound, its
// linked shipment. Link reports whether the counterpart was resolved.
type Result struct {
	Outcome  Outcome                  `json:"outcome"`
	Outbound *models.OutboundShipment `json:"outbound,omitempty"`
	Inbound  *models.InboundReturn    `json:"inbound,omitempty"`
	Link     Link                     `json:"link,omitempty"`
	Source   string                   `json:"source,omitempty"`
}

type Resolver struct {
	remote RemoteSearcher
}

// New builds a resolver. remote may be nil, in which case only local records are searched.
func New(remote RemoteSearcher) *Resolver {
	return &Resolver{remote: remote}
}

// Resolve runs local outbound, local inbound, then remote lookups and stops at
// the first hit. Lower-level failures surface only as ErrNoRecords or ErrSearchFailed.
func (r *Resolver) Resolve(ctx context.Context, query string, outbounds []models.OutboundShipment, inbounds []models.InboundReturn) (Result, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		return Result{Outcome: OutcomeNotFound}, errors.Wrap(ErrNoRecords, "empty query")
	}

	if out := findLocalOutbound(term, outbounds); out != nil {
		res := Result{Outcome: OutcomeFound, Outbound: out, Source: SourceLocal}
		res.Inbound = linkInbound(out, inbounds)
		res.Link = linkState(res.Inbound != nil)
		return res, nil
	}

	if in := findLocalInbound(term, inbounds); in != nil {
		res := Result{Outcome: OutcomeFoundInbound, Inbound: in, Source: SourceLocal}
		res.Outbound = r.linkOutbound(ctx, in, outbounds)
		res.Link = linkState(res.Outbound != nil)
		return res, nil
	}

	return r.resolveRemote(ctx, term)
}

func (r *Resolver) resolveRemote(ctx context.Context, term string) (Result, error) {
	if r.remote == nil {
		return Result{Outcome: OutcomeNotFound}, ErrNoRecords
	}

	out, err := r.remote.FindOutboundByRef(ctx, term)
	if err != nil {
		return Result{Outcome: OutcomeNotFound}, errors.Wrap(ErrSearchFailed, err.Error())
	}
	if out != nil {
		res := Result{Outcome: OutcomeFound, Outbound: out, Source: SourceRemote, Link: LinkNotApplicable}
		if core := normalize.ExtractCoreReference(out.SourceStoreOrderID); core != "" {
			in, err := r.remote.FindInboundByRef(ctx, core)
			if err != nil {
				return Result{Outcome: OutcomeNotFound}, errors.Wrap(ErrSearchFailed, err.Error())
			}
			if in != nil {
				res.Inbound = in
				res.Link = LinkFound
			}
		}
		return res, nil
	}

	in, err := r.remote.FindInboundByRef(ctx, term)
	if err != nil {
		return Result{Outcome: OutcomeNotFound}, errors.Wrap(ErrSearchFailed, err.Error())
	}
	if in == nil {
		return Result{Outcome: OutcomeNotFound}, ErrNoRecords
	}

	res := Result{Outcome: OutcomeFoundInbound, Inbound: in, Source: SourceRemote, Link: LinkNotApplicable}
	if core := normalize.ExtractCoreReference(in.Reference); core != "" {
		linked, err := r.remote.FindOutboundByRef(ctx, core)
		if err != nil {
			return Result{Outcome: OutcomeNotFound}, errors.Wrap(ErrSearchFailed, err.Error())
		}
		if linked != nil {
			res.Outbound = linked
			res.Link = LinkFound
		}
	}
	return res, nil
}

func findLocalOutbound(term string, outbounds []models.OutboundShipment) *models.OutboundShipment {
	for i := range outbounds {
		o := &outbounds[i]
		if strings.EqualFold(o.ID, term) ||
			strings.EqualFold(o.OrderID, term) ||
			strings.EqualFold(o.SourceStoreOrderID, term) ||
			strings.EqualFold(o.Tracking, term) ||
			strings.EqualFold(o.ChannelID, term) {
			rec := *o
			return &rec
		}
	}
	return nil
}

func findLocalInbound(term string, inbounds []models.InboundReturn) *models.InboundReturn {
	for i := range inbounds {
		in := &inbounds[i]
		if strings.EqualFold(in.ReturnID, term) ||
			strings.EqualFold(in.Reference, term) ||
			strings.EqualFold(in.Tracking, term) {
			rec := *in
			return &rec
		}
	}
	return nil
}

// linkInbound finds the first return whose reference or source shipment id
// contains the outbound's core reference.
func linkInbound(out *models.OutboundShipment, inbounds []models.InboundReturn) *models.InboundReturn {
	core := normalize.ExtractCoreReference(out.SourceStoreOrderID)
	if core == "" {
		return nil
	}
	for i := range inbounds {
		in := inbounds[i]
		if strings.Contains(in.Reference, core) || strings.Contains(in.SourceShipmentID, core) {
			return &in
		}
	}
	return nil
}

// linkOutbound searches local outbounds first and escalates to the remote
// stores with the core reference. Remote failures leave the link unresolved.
func (r *Resolver) linkOutbound(ctx context.Context, in *models.InboundReturn, outbounds []models.OutboundShipment) *models.OutboundShipment {
	core := normalize.ExtractCoreReference(in.Reference)
	if core == "" {
		return nil
	}
	for i := range outbounds {
		o := outbounds[i]
		if strings.Contains(o.SourceStoreOrderID, core) {
			return &o
		}
	}
	if r.remote == nil {
		return nil
	}
	out, err := r.remote.FindOutboundByRef(ctx, core)
	if err != nil {
		slog.Warn("reverse link lookup failed", "core", core, "error", err.Error())
		return nil
	}
	return out
}

func linkState(found bool) Link {
	if found {
		return LinkFound
	}
	return LinkNotApplicable
}
