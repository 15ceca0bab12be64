package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mvnboot/pkg/maven"
	"github.com/matzehuels/mvnboot/pkg/render"
	"github.com/matzehuels/mvnboot/pkg/resolve"
)

// Output formats for "mvnboot resolve".
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

var formats = []string{FormatText, FormatJSON, FormatYAML, FormatDOT, FormatSVG}

// resolveFlags holds flags for the resolve command.
type resolveFlags struct {
	format      string
	output      string
	detailed    bool
	keepGoing   bool
	concurrency int
	skipScopes  []string
}

func (c *CLI) resolveCommand() *cobra.Command {
	var flags resolveFlags
	cmd := &cobra.Command{
		Use:   "resolve [group:artifact:version...]",
		Short: "Resolve the transitive dependency set without downloading it",
		Long: `Resolve fetches the POMs of the given coordinates, or of every [artifacts.maven]
entry in the config when none are given, and prints the flattened dependency set.
Dependencies with a skipped scope (test by default) or marked optional are never
followed, and exclusions apply to the subtree below the declaring edge.`,
		Example: `  mvnboot resolve org.slf4j:slf4j-simple:2.0.9
  mvnboot resolve --format json -o deps.json
  mvnboot resolve net.mamoe:mirai-console:2.16.0 --format svg -o graph.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.format, "format", "f", FormatText, "output format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add depth and package URL to graph labels")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "report failing branches instead of aborting")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "max concurrent POM fetches (default from config)")
	cmd.Flags().StringSliceVar(&flags.skipScopes, "skip-scope", nil, "scopes never followed (default from config)")
	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, args []string, flags resolveFlags) error {
	if !validFormat(flags.format) {
		return fmt.Errorf("unknown format %q (want one of %s)", flags.format, strings.Join(formats, ", "))
	}

	roots := make([]maven.Coordinate, 0, len(args))
	for _, arg := range args {
		root, err := maven.ParseCoordinate(arg)
		if err != nil {
			return err
		}
		roots = append(roots, root)
	}
	cfg, err := c.loadConfig(len(roots) > 0)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		roots = cfg.MavenArtifacts()
	}
	if len(roots) == 0 {
		return errors.New("nothing to resolve: pass a coordinate or add [artifacts.maven] entries")
	}
	if len(roots) > 1 && (flags.format == FormatDOT || flags.format == FormatSVG) {
		return fmt.Errorf("%s output draws a single graph; pass one coordinate", flags.format)
	}

	b, err := c.newBootstrapper(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	opts := b.resolveOptions()
	if flags.keepGoing {
		opts.KeepGoing = true
	}
	if flags.concurrency > 0 {
		opts.Concurrency = flags.concurrency
	}
	if cmd.Flags().Changed("skip-scope") {
		opts.SkipScopes = append([]string{}, flags.skipScopes...)
	}

	ctx := cmd.Context()
	spin := newSpinner(ctx, c.ErrOut, "Resolving")
	spin.Start()
	prog := beginStep(ctx)
	results, err := b.resolveRoots(ctx, roots, opts)
	spin.Stop()
	if err != nil {
		return err
	}
	total := 0
	for _, res := range results {
		total += len(res.Dependencies)
	}
	prog.donef("Resolved %d dependencies", total)

	w := c.Out
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := writeResults(ctx, w, flags.format, results, render.Options{Detailed: flags.detailed}); err != nil {
		return err
	}

	if flags.output != "" || flags.format != FormatText {
		for _, res := range results {
			c.reportIssues(res)
		}
	}
	if flags.output != "" {
		c.printSuccess("Resolved %d dependencies", total)
		c.printFile(flags.output)
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range formats {
		if f == v {
			return true
		}
	}
	return false
}

// writeResults encodes results in format. JSON and YAML emit a single object
// for one root and a list otherwise; DOT and SVG take exactly one result.
func writeResults(ctx context.Context, w io.Writer, format string, results []*resolve.Result, opts render.Options) error {
	var doc any = results
	if len(results) == 1 {
		doc = results[0]
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatDOT:
		_, err := io.WriteString(w, render.ToDOT(results[0], opts))
		return err
	case FormatSVG:
		svg, err := render.RenderSVG(ctx, render.ToDOT(results[0], opts))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, StyleTitle.Render(res.Root.String()))
		if err := writeTable(w, res); err != nil {
			return err
		}
		for _, cf := range res.Conflicts {
			fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("%s %s: kept %s, %s wanted %s", iconWarning, cf.Key, cf.Kept, cf.From, cf.Rejected)))
		}
		for _, u := range res.Unresolved {
			fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("%s %s unresolved: %s", iconWarning, u.Coordinate, u.Reason)))
		}
	}
	return nil
}
