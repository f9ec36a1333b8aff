// Package prereq checks that the environment needed to run a generated web
// application is in place: configuration, database server, databases and
// local URLs.
package prereq

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ridoystarlord/metagen/config"
	"github.com/ridoystarlord/metagen/schema"
)

// CheckEnv reports the mandatory settings that are missing.
func CheckEnv(cfg *config.Config) error {
	return cfg.Validate()
}

// CheckDatabase verifies that the server answers.
func CheckDatabase(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrConnectivity, err)
	}
	return nil
}

// DatabasesExist reports for each name whether the server has that database.
func DatabasesExist(ctx context.Context, db *sql.DB, names []string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	defer rows.Close()

	existing := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning database name: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]bool, len(names))
	for _, n := range names {
		result[n] = existing[n]
	}
	return result, nil
}

// CreateDatabase creates name unless it exists.
func CreateDatabase(ctx context.Context, db *sql.DB, name string) error {
	quoted := "`" + strings.ReplaceAll(name, "`", "``") + "`"
	if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+quoted); err != nil {
		return fmt.Errorf("creating database %s: %w", name, err)
	}
	return nil
}

// URLResult is the reachability of one URL.
type URLResult struct {
	URL       string
	Reachable bool
	// Status is "Reachable", "Not reachable (Status code: N)" or "Error: ...".
	Status string
}

// CheckURLs requests every URL with at most workers requests in flight.
// URLs without a scheme are requested over http. Results are sorted by URL.
func CheckURLs(ctx context.Context, client *http.Client, urls []string, workers int) []URLResult {
	if client == nil {
		client = http.DefaultClient
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]URLResult, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = checkURL(ctx, client, u)
			return nil
		})
	}
	g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].URL < results[j].URL })
	return results
}

func checkURL(ctx context.Context, client *http.Client, raw string) URLResult {
	target := raw
	if !strings.Contains(raw, "://") {
		target = "http://" + raw
	}
	res := URLResult{URL: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		res.Status = "Error: " + err.Error()
		return res
	}
	resp, err := client.Do(req)
	if err != nil {
		res.Status = "Error: " + err.Error()
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		res.Reachable = true
		res.Status = "Reachable"
	} else {
		res.Status = fmt.Sprintf("Not reachable (Status code: %d)", resp.StatusCode)
	}
	return res
}
