package client

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Summary is the figures shown at the top of the home screen.
type Summary struct {
	TodayVisits     int `json:"today_visits"`
	MonthlyNewCount int `json:"monthly_new_count"`
}

// Summary fetches the home screen figures concurrently.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.TodayVisitCount(gctx)
		if err != nil {
			return fmt.Errorf("today visits: %w", err)
		}
		s.TodayVisits = n
		return nil
	})
	g.Go(func() error {
		n, err := c.MonthlyNewCount(gctx)
		if err != nil {
			return fmt.Errorf("monthly new customers: %w", err)
		}
		s.MonthlyNewCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
