package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"myfi.backend/internal/domain/entities"
	"myfi.backend/internal/infrastructure/accord"
	"myfi.backend/internal/infrastructure/jobs"
	"myfi.backend/internal/usecases"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	now              = time.Now
)

func commands(env *environment) []subcommands.Command {
	return []subcommands.Command{
		&feedCmd{env: env, feed: usecases.FeedAmc, synopsis: "reconciles the AMC master feed"},
		&feedCmd{env: env, feed: usecases.FeedSchemes, synopsis: "joins and reconciles the scheme feeds"},
		&feedCmd{env: env, feed: usecases.FeedNav, synopsis: "merges the NAV history feed"},
		&syncCmd{env: env},
	}
}

// feedCmd runs one feed, either from a saved payload or from the upstream API
type feedCmd struct {
	env      *environment
	feed     string
	synopsis string

	date string
	file string
}

func (c *feedCmd) Name() string     { return c.feed }
func (c *feedCmd) Synopsis() string { return c.synopsis }
func (c *feedCmd) Usage() string {
	return fmt.Sprintf(`%s [-date ddmmyyyy] [-file payload.json]

Runs one ingestion pass for the %s feed and prints the report as JSON.
With -file the payload is read from disk instead of the upstream API.
`, c.feed, c.feed)
}

func (c *feedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "feed date (ddmmyyyy); defaults to the configured date or yesterday")
	f.StringVar(&c.file, "file", "", "read the feed payload from this JSON file")
}

func (c *feedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := c.env.open(c.env.cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer p.close()

	report, err := c.run(ctx, p, feedDate(c.date, p.feedDate))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s ingestion failed: %v\n", c.feed, err)
		return subcommands.ExitFailure
	}
	return printReports(report)
}

func (c *feedCmd) run(ctx context.Context, p *pipeline, date string) (entities.IngestReport, error) {
	switch c.feed {
	case usecases.FeedSchemes:
		var tables entities.SchemeTables
		err := c.load(&tables, func() (err error) {
			tables, err = p.source.FetchSchemeTables(ctx, date)
			return err
		})
		if err != nil {
			return entities.IngestReport{}, err
		}
		return p.ingester.IngestSchemeBatch(ctx, tables)
	case usecases.FeedNav:
		var batch entities.RawBatch
		err := c.load(&batch, func() (err error) {
			batch, err = p.source.FetchNavHistory(ctx, date)
			return err
		})
		if err != nil {
			return entities.IngestReport{}, err
		}
		return p.ingester.IngestNavBatch(ctx, batch)
	default:
		var batch entities.RawBatch
		err := c.load(&batch, func() (err error) {
			batch, err = p.source.FetchAmcs(ctx, date)
			return err
		})
		if err != nil {
			return entities.IngestReport{}, err
		}
		return p.ingester.IngestAmcBatch(ctx, batch)
	}
}

// load decodes the -file payload into v, or calls fetch when no file is given
func (c *feedCmd) load(v interface{}, fetch func() error) error {
	if c.file == "" {
		return fetch()
	}
	f, err := os.Open(c.file)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", c.file, err)
	}
	return nil
}

// syncCmd runs the same AMC, scheme and NAV pass as the periodic job
type syncCmd struct {
	env  *environment
	date string
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "runs the AMC, scheme and NAV feeds in order" }
func (*syncCmd) Usage() string {
	return `sync [-date ddmmyyyy]

Fetches every upstream feed for the date and reconciles AMCs, then schemes,
then NAV history. Prints one report per feed.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "feed date (ddmmyyyy); defaults to the configured date or yesterday")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := c.env.open(c.env.cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer p.close()

	job := jobs.NewReferenceDataSyncJob(p.source, p.ingester, 0, feedDate(c.date, p.feedDate))
	reports, err := job.RunOnce(ctx)
	if status := printReports(reports...); status != subcommands.ExitSuccess {
		return status
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: sync failed: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func feedDate(flagDate, configured string) string {
	if flagDate != "" {
		return flagDate
	}
	if configured != "" {
		return configured
	}
	return accord.FeedDate(now().AddDate(0, 0, -1))
}

func printReports(reports ...entities.IngestReport) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
