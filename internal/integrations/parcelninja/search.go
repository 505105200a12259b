package parcelninja

import (
	"context"

	"github.com/BearBump/ShipDesk/internal/models"
)

// FindOutboundByRef queries stores one by one with the raw term as a filter and
// returns the first hit with full item detail. A store failure moves on to the
// next store. (nil, nil) means no store matched; an error is returned only when
// ctx is done.
func (c *Client) FindOutboundByRef(ctx context.Context, term string) (*models.OutboundShipment, error) {
	for _, store := range c.stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := authHeaders(store)
		hits := getListing[Outbound](ctx, c, c.searchURL("outbounds", store, term), h, "Search-Out-"+store.Name)
		if len(hits) == 0 {
			continue
		}
		summary := hits[0]
		detail := getDetail(ctx, c, c.detailURL("outbounds", summary.ID), h, "Detail-Search-"+summary.ID.String(), summary)
		rec := MapOutbound(detail, store.Name)
		return &rec, nil
	}
	return nil, ctx.Err()
}

func (c *Client) FindInboundByRef(ctx context.Context, term string) (*models.InboundReturn, error) {
	for _, store := range c.stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := authHeaders(store)
		hits := getListing[Inbound](ctx, c, c.searchURL("inbounds", store, term), h, "Search-In-"+store.Name)
		if len(hits) == 0 {
			continue
		}
		summary := hits[0]
		detail := getDetail(ctx, c, c.detailURL("inbounds", summary.ID), h, "Detail-Search-In-"+summary.ID.String(), summary)
		rec := MapInbound(detail, store.Name)
		return &rec, nil
	}
	return nil, ctx.Err()
}
