package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnboot/pkg/buildinfo"
	"github.com/matzehuels/mvnboot/pkg/cache"
	"github.com/matzehuels/mvnboot/pkg/config"
	"github.com/matzehuels/mvnboot/pkg/download"
	"github.com/matzehuels/mvnboot/pkg/maven"
	"github.com/matzehuels/mvnboot/pkg/resolve"
)

// ExitError carries the launched application's non-zero exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("application exited with status %d", e.Code) }

// bootstrapper holds the clients one command needs to talk to the
// configured repository.
type bootstrapper struct {
	cfg     *config.Config
	logger  *log.Logger
	repo    *maven.Repository
	cache   cache.Cache
	fetcher *maven.Fetcher
	client  *http.Client
}

func (c *CLI) newBootstrapper(cfg *config.Config) (*bootstrapper, error) {
	store, err := c.openCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	b := &bootstrapper{
		cfg:    cfg,
		logger: c.Logger,
		repo:   maven.NewRepository(cfg.Repository),
		cache:  store,
		client: &http.Client{},
	}
	b.fetcher = maven.NewFetcher(
		maven.WithTimeout(cfg.HTTP.Timeout.Duration),
		maven.WithMaxRetries(cfg.Retries()),
		maven.WithUserAgent(b.userAgent()),
		maven.WithCache(store, maven.DefaultCacheTTL),
		maven.WithLogger(debugf(c.Logger)),
	)
	return b, nil
}

func (b *bootstrapper) Close() error {
	return errors.Join(b.fetcher.Close(), b.cache.Close())
}

func (b *bootstrapper) userAgent() string {
	if b.cfg.HTTP.UserAgent != "" {
		return b.cfg.HTTP.UserAgent
	}
	return buildinfo.UserAgent()
}

func (b *bootstrapper) resolveOptions() resolve.Options {
	return resolve.Options{
		Concurrency: b.cfg.Resolver.Concurrency,
		SkipScopes:  b.cfg.Resolver.SkipScopes,
		KeepGoing:   b.cfg.Resolver.KeepGoing,
		Logger:      debugf(b.logger),
	}
}

// resolveRoots resolves each root in turn; the first failing root aborts.
func (b *bootstrapper) resolveRoots(ctx context.Context, roots []maven.Coordinate, opts resolve.Options) ([]*resolve.Result, error) {
	engine := resolve.NewEngine(b.repo, b.fetcher, opts)
	results := make([]*resolve.Result, 0, len(roots))
	for _, root := range roots {
		b.logger.Debug("resolving", "root", root)
		res, err := engine.Resolve(ctx, root)
		b.warnUnreachableHosts()
		if err != nil {
			return nil, err
		}
		b.logger.Debug("resolved", "root", root, "run", res.RunID, "dependencies", len(res.Dependencies), "took", res.Duration)
		results = append(results, res)
	}
	return results, nil
}

// warnUnreachableHosts names repository hosts whose circuit breaker opened
// during resolution; their manifests fail fast until it closes again.
func (b *bootstrapper) warnUnreachableHosts() {
	var hosts []string
	for host, state := range b.fetcher.BreakerStates() {
		if state == "open" {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)
	for _, host := range hosts {
		b.logger.Warn("repository host failing repeatedly, skipping further requests", "host", host)
	}
}

// archiveURLs flattens results into download URLs, one per (group,
// artifact). Earlier results win on overlap.
func (b *bootstrapper) archiveURLs(results []*resolve.Result) ([]string, error) {
	seen := make(map[maven.Key]bool)
	var urls []string
	for _, res := range results {
		for _, c := range res.Coordinates() {
			if seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
			u, err := b.repo.ArchiveURL(c)
			if err != nil {
				return nil, err
			}
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// present reports whether the archive for url already sits in the content
// directory.
func (b *bootstrapper) present(url string) bool {
	name, err := download.FileName(url)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(b.cfg.ContentDir, name))
	return err == nil
}

// syncReport summarizes one syncArtifacts call.
type syncReport struct {
	Results []*resolve.Result
	Summary download.Summary
	Full    int
}

// syncArtifacts fills the content directory. A maven artifact whose own jar
// is present is considered complete unless all is set; the rest are resolved
// and their whole dependency set is downloaded. Full artifacts are single
// "-all" jars fetched as-is.
func (c *CLI) syncArtifacts(ctx context.Context, b *bootstrapper, all bool) (syncReport, error) {
	var report syncReport
	if err := os.MkdirAll(b.cfg.ContentDir, 0o755); err != nil {
		return report, err
	}

	var roots []maven.Coordinate
	for _, root := range b.cfg.MavenArtifacts() {
		u, err := b.repo.ArchiveURL(root)
		if err != nil {
			return report, err
		}
		if !all && b.present(u) {
			c.Logger.Debug("up to date", "artifact", root)
			continue
		}
		roots = append(roots, root)
	}

	if len(roots) > 0 {
		spin := newSpinner(ctx, c.ErrOut, fmt.Sprintf("Resolving %d artifacts", len(roots)))
		spin.Start()
		prog := beginStep(ctx)
		results, err := b.resolveRoots(ctx, roots, b.resolveOptions())
		spin.Stop()
		if err != nil {
			return report, err
		}
		report.Results = results

		urls, err := b.archiveURLs(results)
		if err != nil {
			return report, err
		}
		prog.donef("Resolved %d dependencies", len(urls))
		for _, res := range results {
			c.reportIssues(res)
		}

		err = c.withDownloadProgress(ctx, c.ErrOut, "Downloading", len(urls), func(progress func(download.Event)) error {
			pool := download.NewPool(b.cfg.ContentDir, download.Options{
				Workers:      b.cfg.Download.Workers,
				Client:       b.client,
				UserAgent:    b.userAgent(),
				SkipExisting: true,
				Progress:     progress,
				Logger:       debugf(c.Logger),
			})
			var err error
			report.Summary, err = pool.Fetch(ctx, urls)
			return err
		})
		if err != nil {
			return report, err
		}
	}

	for _, full := range b.cfg.FullArtifacts() {
		u, err := b.repo.ClassifiedArchiveURL(full, "all")
		if err != nil {
			return report, err
		}
		if b.present(u) {
			c.Logger.Debug("up to date", "artifact", full)
			continue
		}
		c.Logger.Info("downloading", "artifact", full)
		if _, err := download.File(ctx, b.client, u, b.cfg.ContentDir); err != nil {
			return report, fmt.Errorf("download %s: %w", full, err)
		}
		report.Full++
	}
	return report, nil
}
