package database

import (
	"context"
	"fmt"
)

// DomainCount pairs a domain with its number of crawled pages.
type DomainCount struct {
	Domain string
	Count  int
}

// Stats summarizes the state of a crawl store for reporting.
type Stats struct {
	// Crawled is the number of successfully fetched pages.
	Crawled int

	// Pending is the number of URLs still in the frontier.
	Pending int

	// Disallowed is the number of policy-blocked URLs.
	Disallowed int

	// Errors is the number of recorded error events.
	Errors int

	// BannedDomains is the number of domains marked disallowed.
	BannedDomains int

	// AverageScore is the mean relevance score over crawled pages.
	AverageScore float64

	// TopDomains lists the most crawled domains, descending.
	TopDomains []DomainCount
}

// CollectStats reads summary statistics from the store.
func (s *Store) CollectStats(ctx context.Context, topN int) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM crawled`, &stats.Crawled},
		{`SELECT COUNT(*) FROM frontier`, &stats.Pending},
		{`SELECT COUNT(*) FROM disallowed`, &stats.Disallowed},
		{`SELECT COUNT(*) FROM errors`, &stats.Errors},
		{`SELECT COUNT(*) FROM domains WHERE disallowed = 1`, &stats.BannedDomains},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to collect counts: %w", err)
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(AVG(score), 0) FROM crawled`).Scan(&stats.AverageScore); err != nil {
		return nil, fmt.Errorf("failed to collect average score: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT domain, COUNT(*) AS n FROM crawled
	GROUP BY domain
	ORDER BY n DESC, domain ASC
	LIMIT ?`, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to collect top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan domain count: %w", err)
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}
	return stats, rows.Err()
}
