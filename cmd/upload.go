// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gooddata/cli/internal/archive"
	"gooddata/cli/internal/keychain"
	"gooddata/cli/internal/loader"
	"gooddata/cli/internal/project"
	"gooddata/cli/internal/sqlexport"
	"gooddata/cli/internal/staging"
	"gooddata/cli/internal/task"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// payloadFlags are shared by upload and load.
type payloadFlags struct {
	manifest  string
	csv       string
	query     string
	dsn       string
	dates     []string
	datetimes []string
	keepCSV   bool
	csvPath   string
	dryRun    bool
}

func (f *payloadFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.manifest, "manifest", "m", "", "Column manifest (upload_info) as YAML or JSON")
	fs.StringVar(&f.csv, "csv", "", "CSV file to upload (- for stdin)")
	fs.StringVar(&f.query, "query", "", "SQL query whose result is uploaded instead of --csv")
	fs.StringVar(&f.dsn, "dsn", "", "Source database for --query (default: GDC_SOURCE_DSN, DATABASE_URL, keychain)")
	fs.StringSliceVar(&f.dates, "dates", nil, "Columns normalised to yyyy-MM-dd")
	fs.StringSliceVar(&f.datetimes, "datetimes", nil, "Columns normalised to yyyy-MM-dd HH:mm:ss")
	fs.BoolVar(&f.keepCSV, "keep-csv", false, "Also write the normalised CSV to --csv-path")
	fs.StringVar(&f.csvPath, "csv-path", "", "Where --keep-csv writes the CSV")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Build the archive but do not upload it")
}

// payload loads the manifest and the CSV, and turns the flags into staging options.
func (f *payloadFlags) payload(ctx context.Context) ([]byte, map[string]any, staging.Options, error) {
	opts := staging.Options{
		Dates:     f.dates,
		Datetimes: f.datetimes,
		KeepCSV:   f.keepCSV,
		CSVPath:   f.csvPath,
		NoUpload:  f.dryRun,
	}
	if f.keepCSV && f.csvPath == "" {
		return nil, nil, opts, errors.New("--keep-csv needs --csv-path")
	}
	if f.manifest == "" {
		return nil, nil, opts, errors.New("--manifest is required")
	}
	manifest, err := archive.LoadManifest(f.manifest)
	if err != nil {
		return nil, nil, opts, err
	}

	switch {
	case f.csv != "" && f.query != "":
		return nil, nil, opts, errors.New("--csv and --query are mutually exclusive")
	case f.csv == "-":
		data, err := io.ReadAll(os.Stdin)
		return data, manifest, opts, err
	case f.csv != "":
		data, err := os.ReadFile(f.csv)
		if err != nil {
			return nil, nil, opts, fmt.Errorf("read csv: %w", err)
		}
		return data, manifest, opts, nil
	case f.query != "":
		t, err := f.export(ctx)
		if err != nil {
			return nil, nil, opts, err
		}
		// Typed columns are normalised even when not listed explicitly.
		opts.Dates = union(opts.Dates, t.Dates)
		opts.Datetimes = union(opts.Datetimes, t.Datetimes)
		return t.CSV, manifest, opts, nil
	}
	return nil, nil, opts, errors.New("nothing to upload: pass --csv or --query")
}

func (f *payloadFlags) export(ctx context.Context) (*sqlexport.Table, error) {
	var store sqlexport.DSNStore
	if km, err := keychain.GetManager(); err == nil {
		store = km
	}
	dsn, from, err := sqlexport.ResolveDSN(f.dsn, store)
	if err != nil {
		return nil, err
	}
	rt.log.Debug("exporting query", rt.log.Args("source", from, "dsn", sqlexport.MaskDSN(dsn)))

	var t *sqlexport.Table
	err = spin("Running export query", "Query exported", func() error {
		pool, err := sqlexport.Open(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
		e := sqlexport.New(pool)
		e.Log = rt.log
		t, err = e.ExportCSV(ctx, f.query)
		return err
	})
	if err != nil {
		return nil, err
	}
	pterm.Printf("Exported %d row(s), %d column(s)\n", t.Rows, len(t.Columns))
	return t, nil
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

var (
	uploadFlags payloadFlags
	loadFlags   payloadFlags
	loadNoWait  bool
	pullNoWait  bool
)

// uploadCmd stages a payload without integrating it.
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Stage a CSV payload on the staging service",
	Long: `The upload command packs the CSV and its column manifest into an archive,
creates a fresh directory on the staging service and uploads the archive into it.
The directory name is printed; pass it to 'gdc integrate'.

With --dry-run the archive is built and discarded and nothing is uploaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, manifest, opts, err := uploadFlags.payload(ctx)
		if err != nil {
			return err
		}
		if opts.NoUpload {
			dir, err := staging.New(rt.cfg.StagingHost, nil, staging.WithLogger(rt.log)).Stage(ctx, data, manifest, opts)
			if err != nil {
				return err
			}
			printDryRun(dir)
			return nil
		}
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		var dir string
		err = spin("Uploading to "+rt.cfg.StagingHost, "Payload staged", func() error {
			dir, err = rt.staging(sess).Stage(ctx, data, manifest, opts)
			return err
		})
		if err != nil {
			return err
		}
		rememberStaged(dir)
		pterm.Println(dir)
		return nil
	},
}

var unstageCmd = &cobra.Command{
	Use:   "unstage [dir]",
	Short: "Delete a staging directory (default: the last uploaded one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := stagedDir(args)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		return spin("Removing "+dir, "Staging directory removed", func() error {
			return rt.staging(sess).Unstage(ctx, dir)
		})
	},
}

var integrateCmd = &cobra.Command{
	Use:   "integrate [dir]",
	Short: "Integrate a staged directory into the project",
	Long: `The integrate command starts a pull integration of a directory previously
staged with 'gdc upload' (the last one when omitted) and waits for it, unless
--no-wait is given. An expired session is renewed once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := stagedDir(args)
		if err != nil {
			return err
		}
		id, err := rt.projectID()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		var opts []project.ExecOption
		if pullNoWait {
			opts = append(opts, project.NoWait())
		}
		return track("Integrating "+dir, "Data integrated", func(hook func(task.Handle, string)) error {
			return rt.projects(sess, hook).Load(id).IntegrateUploadedData(ctx, dir, opts...)
		})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Stage a CSV payload and integrate it into the project",
	Long: `The load command runs 'gdc upload' and 'gdc integrate' in one go, passing the
staging directory through unchanged. With --dry-run only the archive is built.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, manifest, opts, err := loadFlags.payload(ctx)
		if err != nil {
			return err
		}
		if opts.NoUpload {
			dir, err := staging.New(rt.cfg.StagingHost, nil, staging.WithLogger(rt.log)).Stage(ctx, data, manifest, opts)
			if err != nil {
				return err
			}
			printDryRun(dir)
			return nil
		}
		id, err := rt.projectID()
		if err != nil {
			return err
		}
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		var exec []project.ExecOption
		if loadNoWait {
			exec = append(exec, project.NoWait())
		}
		var res loader.Result
		err = track("Loading data into "+id, "Data loaded", func(hook func(task.Handle, string)) error {
			l := loader.Loader{Stager: rt.staging(sess), Integrator: rt.projects(sess, hook).Load(id)}
			res, err = l.Load(ctx, data, manifest, opts, exec...)
			return err
		})
		if res.Dir != "" {
			pterm.Printf("Staging directory: %s\n", res.Dir)
		}
		return err
	},
}

func printDryRun(csvPath string) {
	pterm.Info.Println("Dry run: archive built and discarded, nothing uploaded")
	if csvPath != "" {
		pterm.Printf("CSV written to %s\n", csvPath)
	}
}

func init() {
	rootCmd.AddCommand(uploadCmd, unstageCmd, integrateCmd, loadCmd)
	uploadFlags.register(uploadCmd.Flags())
	loadFlags.register(loadCmd.Flags())
	loadCmd.Flags().BoolVar(&loadNoWait, "no-wait", false, "Start the integration without waiting for it")
	integrateCmd.Flags().BoolVar(&pullNoWait, "no-wait", false, "Start the integration without waiting for it")
}
