// file: cmd/get.go
// version: 1.0.0
// guid: b3e8a738-5f44-463d-8fd6-0d77fd72ed06

package cmd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jdfalk/spit/internal/dispatcher"
	"github.com/jdfalk/spit/internal/metadata"
	"github.com/jdfalk/spit/internal/metrics"
	"github.com/jdfalk/spit/internal/models"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <category>",
	Short: "Retrieve metadata of one category",
	Long: `Retrieve metadata of one category from every eligible provider.

Categories: ` + strings.Join(categoryNames(), ", "),
	Example: `  spit get relations --artist Metallica --number 10
  spit get cover --artist Metallica --album "Some Kind of Monster"
  spit get lyrics --file "01 - One.mp3" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := readGetFlags(cmd)
		if err != nil {
			return err
		}
		return runGet(cmd, args[0], flags)
	},
}

type getFlags struct {
	from        string
	artist      *string
	album       *string
	title       *string
	number      int
	timeout     time.Duration
	format      string
	file        string
	metricsFile string
	progress    bool
}

func init() {
	getCmd.Flags().String("from", "", "providers or groups to ask, separated by ';' (default all)")
	getCmd.Flags().String("artist", "", "artist name")
	getCmd.Flags().String("album", "", "album name")
	getCmd.Flags().String("title", "", "track title")
	getCmd.Flags().IntP("number", "n", 0, "maximum number of results (0 means no limit)")
	getCmd.Flags().Duration("timeout", 0, "overall deadline, e.g. 5s (default from config)")
	getCmd.Flags().StringP("format", "f", "text", "output format: text, json or yaml")
	getCmd.Flags().String("file", "", "read artist, album and title from an audio file")
	getCmd.Flags().String("metrics-file", "", "write Prometheus metrics for this run to a file")
	getCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
}

func readGetFlags(cmd *cobra.Command) (getFlags, error) {
	var f getFlags
	fs := cmd.Flags()
	f.from, _ = fs.GetString("from")
	f.number, _ = fs.GetInt("number")
	f.timeout, _ = fs.GetDuration("timeout")
	f.format, _ = fs.GetString("format")
	f.file, _ = fs.GetString("file")
	f.metricsFile, _ = fs.GetString("metrics-file")
	f.progress, _ = fs.GetBool("progress")

	// Only flags given on the command line count as part of the subject.
	for name, target := range map[string]**string{"artist": &f.artist, "album": &f.album, "title": &f.title} {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*target = models.String(v)
		}
	}

	if !slices.Contains(outputFormats, strings.ToLower(f.format)) {
		return f, fmt.Errorf("unknown output format %q (want one of %s)", f.format, strings.Join(outputFormats, ", "))
	}
	if f.timeout < 0 {
		return f, fmt.Errorf("timeout must not be negative")
	}
	return f, nil
}

func runGet(cmd *cobra.Command, category string, f getFlags) error {
	c, err := models.ParseCategory(category)
	if err != nil {
		return err
	}

	params := models.QueryParams{
		Category:     c,
		SourceFilter: f.from,
		Artist:       f.artist,
		Album:        f.album,
		Track:        f.title,
		MaxResults:   f.number,
	}
	if f.file != "" {
		if err := fillFromFile(&params, f.file); err != nil {
			return err
		}
	}

	q, err := models.BuildQuery(params)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var reg *prometheus.Registry
	if f.metricsFile != "" {
		reg = metrics.NewRegistry()
	}

	ctx := cmd.Context()
	if f.progress {
		total := -1
		if entries, err := a.Registry.EligibleProviders(q); err == nil {
			total = len(entries)
		}
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("providers"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		ctx = dispatcher.WithReporter(ctx, func(r dispatcher.Report) {
			bar.Describe(r.Provider)
			_ = bar.Add(1)
		})
		defer func() { _ = bar.Finish() }()
	}

	results, err := a.Dispatcher.Retrieve(ctx, q, f.timeout)
	if err != nil {
		return err
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(f.metricsFile, reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return writeResults(cmd.OutOrStdout(), f.format, results)
}

// fillFromFile completes params with the tags of an audio file. Subject
// flags given explicitly win over the file.
func fillFromFile(params *models.QueryParams, path string) error {
	tags, err := metadata.ReadFileTags(path)
	if err != nil {
		return err
	}
	fill := func(dst **string, v string) {
		if *dst == nil && v != "" {
			*dst = models.String(v)
		}
	}
	fill(&params.Artist, tags.Artist)
	fill(&params.Album, tags.Album)
	fill(&params.Track, tags.Title)
	return nil
}

func categoryNames() []string {
	all := models.AllCategories()
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.String())
	}
	return names
}
