package lago

import (
	"context"
	"iter"
	"net/url"
	"strconv"
)

// ListOptions selects one page of a list endpoint.
type ListOptions struct {
	Page    int
	PerPage int

	// Filters are passed through as query parameters, e.g.
	// {"external_customer_id": "acme", "status[]": "active"}.
	Filters map[string]string
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(o.PerPage))
	}
	for k, val := range o.Filters {
		v.Set(k, val)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListInvoices returns one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, opts ListOptions) (*InvoicesResponse, error) {
	var out InvoicesResponse
	if err := c.Get(ctx, "/api/v1/invoices"+opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPlans returns one page of plans.
func (c *Client) ListPlans(ctx context.Context, opts ListOptions) (*PlansResponse, error) {
	var out PlansResponse
	if err := c.Get(ctx, "/api/v1/plans"+opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSubscriptions returns one page of subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, opts ListOptions) (*SubscriptionsResponse, error) {
	var out SubscriptionsResponse
	if err := c.Get(ctx, "/api/v1/subscriptions"+opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPlan fetches a plan by its code.
func (c *Client) GetPlan(ctx context.Context, code string) (*Plan, error) {
	var out struct {
		Plan Plan `json:"plan"`
	}
	if err := c.Get(ctx, "/api/v1/plans/"+url.PathEscape(code), &out); err != nil {
		return nil, err
	}
	return &out.Plan, nil
}

// GetSubscription fetches a subscription by its external ID.
func (c *Client) GetSubscription(ctx context.Context, externalID string) (*Subscription, error) {
	var out subscriptionEnvelope
	if err := c.Get(ctx, subscriptionPath(externalID), &out); err != nil {
		return nil, err
	}
	return &out.Subscription, nil
}

// UpdateSubscription changes the mutable fields of a subscription.
func (c *Client) UpdateSubscription(ctx context.Context, externalID string, update SubscriptionUpdate) (*Subscription, error) {
	body := struct {
		Subscription SubscriptionUpdate `json:"subscription"`
	}{update}

	var out subscriptionEnvelope
	if err := c.Put(ctx, subscriptionPath(externalID), body, &out); err != nil {
		return nil, err
	}
	return &out.Subscription, nil
}

// TerminateSubscription ends a subscription and returns its final state.
func (c *Client) TerminateSubscription(ctx context.Context, externalID string) (*Subscription, error) {
	var out subscriptionEnvelope
	if err := c.Delete(ctx, subscriptionPath(externalID), &out); err != nil {
		return nil, err
	}
	return &out.Subscription, nil
}

type subscriptionEnvelope struct {
	Subscription Subscription `json:"subscription"`
}

func subscriptionPath(externalID string) string {
	return "/api/v1/subscriptions/" + url.PathEscape(externalID)
}

// Invoices iterates over every invoice matching opts, following next_page.
// Iteration stops at the first error, which is yielded with a zero Invoice.
func (c *Client) Invoices(ctx context.Context, opts ListOptions) iter.Seq2[Invoice, error] {
	return paginate(opts, func(o ListOptions) ([]Invoice, ResponseMetadata, error) {
		resp, err := c.ListInvoices(ctx, o)
		if err != nil {
			return nil, ResponseMetadata{}, err
		}
		return resp.Invoices, resp.Meta, nil
	})
}

// Plans iterates over every plan, following next_page.
func (c *Client) Plans(ctx context.Context, opts ListOptions) iter.Seq2[Plan, error] {
	return paginate(opts, func(o ListOptions) ([]Plan, ResponseMetadata, error) {
		resp, err := c.ListPlans(ctx, o)
		if err != nil {
			return nil, ResponseMetadata{}, err
		}
		return resp.Plans, resp.Meta, nil
	})
}

// Subscriptions iterates over every subscription matching opts, following next_page.
func (c *Client) Subscriptions(ctx context.Context, opts ListOptions) iter.Seq2[Subscription, error] {
	return paginate(opts, func(o ListOptions) ([]Subscription, ResponseMetadata, error) {
		resp, err := c.ListSubscriptions(ctx, o)
		if err != nil {
			return nil, ResponseMetadata{}, err
		}
		return resp.Subscriptions, resp.Meta, nil
	})
}

func paginate[T any](opts ListOptions, fetch func(ListOptions) ([]T, ResponseMetadata, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			items, meta, err := fetch(opts)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if meta.NextPage == nil || *meta.NextPage <= opts.Page {
				return
			}
			opts.Page = *meta.NextPage
		}
	}
}
