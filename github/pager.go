package github

import (
	"context"
	"strings"
)

// pager walks a paginated listing one page at a time, following the
// rel="next" cursor from each response's Link header. A fresh pager always
// restarts from its first page.
type pager struct {
	c    *Client
	next string
}

func (c *Client) newPager(startURL string) *pager {
	return &pager{c: c, next: startURL}
}

// Next fetches the following page and decodes it into v. It reports false
// once the cursor is exhausted. Callers that stop early simply abandon the
// pager; no pages beyond the last requested one are fetched.
func (p *pager) Next(ctx context.Context, v any) (bool, error) {
	if p.next == "" {
		return false, nil
	}
	next, err := p.c.getPage(ctx, p.next, v)
	if err != nil {
		return false, err
	}
	p.next = next
	return true, nil
}

// collectPages materializes an entire paginated listing, concatenating
// pages in host order. The loop stops when no next link is present or when
// a page comes back empty, whichever happens first.
func collectPages[T any](ctx context.Context, c *Client, startURL string) ([]T, error) {
	var all []T
	p := c.newPager(startURL)
	for {
		var page []T
		ok, err := p.Next(ctx, &page)
		if err != nil {
			return nil, err
		}
		if !ok || len(page) == 0 {
			break
		}
		all = append(all, page...)
	}
	return all, nil
}

// parseLinkHeader extracts the rel="next" URL from a Link header of the
// form `<url>; rel="name", <url>; rel="name"`. It returns "" when no next
// relation is present.
func parseLinkHeader(header string) string {
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, param := range sections[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}
