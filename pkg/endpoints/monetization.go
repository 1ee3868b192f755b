package endpoints

import (
	"strings"

	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// EntitlementPaginator walks an application's entitlements.
type EntitlementPaginator struct {
	*pagination.Action[entity.Entitlement]
}

// Entitlements paginates the entitlements of application.
func Entitlements(f pagination.Fetcher, application snowflake.ID) (*EntitlementPaginator, error) {
	route, err := compile(rest.GetEntitlements, []snowflake.ID{application})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.Entitlement]{
		Name:   "entitlements",
		Route:  route,
		Policy: standardPolicy(bothOrders),
		Key:    func(e entity.Entitlement) uint64 { return key(e.ID) },
	})
	if err != nil {
		return nil, err
	}
	return &EntitlementPaginator{a}, nil
}

// User limits the entitlements to one user. Zero removes the filter.
func (p *EntitlementPaginator) User(user snowflake.ID) *EntitlementPaginator {
	setID(p.Action, "user_id", user)
	return p
}

// Guild limits the entitlements to one guild. Zero removes the filter.
func (p *EntitlementPaginator) Guild(guild snowflake.ID) *EntitlementPaginator {
	setID(p.Action, "guild_id", guild)
	return p
}

// SKUs limits the entitlements to the given SKUs. No ids removes the filter.
func (p *EntitlementPaginator) SKUs(skus ...snowflake.ID) *EntitlementPaginator {
	if len(skus) == 0 {
		p.ClearFilter("sku_ids")
		return p
	}
	ids := make([]string, len(skus))
	for i, id := range skus {
		ids[i] = id.String()
	}
	p.SetFilter("sku_ids", strings.Join(ids, ","))
	return p
}

// ExcludeEnded drops entitlements that have expired.
func (p *EntitlementPaginator) ExcludeEnded(exclude bool) *EntitlementPaginator {
	p.SetFilter("exclude_ended", formatBool(exclude))
	return p
}

// ExcludeDeleted drops deleted entitlements.
func (p *EntitlementPaginator) ExcludeDeleted(exclude bool) *EntitlementPaginator {
	p.SetFilter("exclude_deleted", formatBool(exclude))
	return p
}

// SubscriptionPaginator walks the subscriptions of a SKU.
type SubscriptionPaginator struct {
	*pagination.Action[entity.Subscription]
}

// Subscriptions paginates the subscriptions to sku.
func Subscriptions(f pagination.Fetcher, sku snowflake.ID) (*SubscriptionPaginator, error) {
	route, err := compile(rest.GetSKUSubscriptions, []snowflake.ID{sku})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.Subscription]{
		Name:  "subscriptions",
		Route: route,
		Policy: pagination.Policy{
			MinLimit:     1,
			MaxLimit:     defaultMaxLimit,
			InitialLimit: 50,
			Orders:       bothOrders,
		},
		Key: func(s entity.Subscription) uint64 { return key(s.ID) },
	})
	if err != nil {
		return nil, err
	}
	return &SubscriptionPaginator{a}, nil
}

// User limits the subscriptions to one user. Zero removes the filter.
func (p *SubscriptionPaginator) User(user snowflake.ID) *SubscriptionPaginator {
	setID(p.Action, "user_id", user)
	return p
}
