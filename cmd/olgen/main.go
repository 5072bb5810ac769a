// Command olgen generates synthetic lineage run event batches and delivers
// them to a file, an ingestion endpoint, or an object store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lineagelab/olgen/internal/metagen"
	"github.com/lineagelab/olgen/internal/platform/objectstore"
	"github.com/lineagelab/olgen/internal/sink"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("olgen failed", "error", err)
		if errors.Is(err, metagen.ErrInvalidParams) || errors.Is(err, metagen.ErrEventSizeTooSmall) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "olgen",
		Short:         "Synthetic lineage event generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(logger))
	return root
}

type generateOptions struct {
	profile string

	runs            int
	bytesPerEvent   int
	inputsPerEvent  int
	bytesPerInput   int
	outputsPerEvent int
	bytesPerOutput  int
	fieldsPerEvent  int
	namespace       string
	timeZone        string
	seed            int64

	sinkKind string
	output   string

	url             string
	timeout         time.Duration
	eventsPerSecond float64
	tokenURL        string
	clientID        string
	clientSecret    string
	scopes          []string

	bucket string
	key    string
}

func newGenerateCmd(logger *slog.Logger) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of run events and write it to the chosen sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, logger, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.profile, "profile", "", "YAML generation profile; flags set explicitly override it")

	flags.IntVar(&opts.runs, "runs", metagen.DefaultRuns, "number of run event pairs to generate")
	flags.IntVar(&opts.bytesPerEvent, "bytes-per-event", metagen.DefaultBytesPerEvent, "approximate serialized size target per START event")
	flags.IntVar(&opts.inputsPerEvent, "inputs-per-event", metagen.DefaultInputsPerEvent, "input datasets per event")
	flags.IntVar(&opts.bytesPerInput, "bytes-per-input", metagen.DefaultBytesPerInput, "size hint per input dataset")
	flags.IntVar(&opts.outputsPerEvent, "outputs-per-event", metagen.DefaultOutputsPerEvent, "output datasets per event")
	flags.IntVar(&opts.bytesPerOutput, "bytes-per-output", metagen.DefaultBytesPerOutput, "size hint per output dataset")
	flags.IntVar(&opts.fieldsPerEvent, "fields-per-event", metagen.DefaultFieldsPerEvent, "schema fields spread across the event's datasets")
	flags.StringVar(&opts.namespace, "namespace", "", "shared namespace for jobs and datasets (empty: randomized)")
	flags.StringVar(&opts.timeZone, "time-zone", metagen.DefaultTimeZone, "IANA time zone for event times")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed for reproducible batches (0: wall clock)")

	flags.StringVar(&opts.sinkKind, "sink", "file", "delivery target: file, http, or s3")
	flags.StringVarP(&opts.output, "output", "o", sink.DefaultOutputPath, "output path for the file sink")

	flags.StringVar(&opts.url, "url", "", "ingestion endpoint for the http sink")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout for the http sink")
	flags.Float64Var(&opts.eventsPerSecond, "rate", 0, "events per second for the http sink (0: unthrottled)")
	flags.StringVar(&opts.tokenURL, "token-url", "", "OAuth2 token endpoint for the http sink")
	flags.StringVar(&opts.clientID, "client-id", "", "OAuth2 client id")
	flags.StringVar(&opts.clientSecret, "client-secret", "", "OAuth2 client secret")
	flags.StringSliceVar(&opts.scopes, "scope", nil, "OAuth2 scope (repeatable)")

	flags.StringVar(&opts.bucket, "bucket", "", "bucket for the s3 sink (default: OBJECTSTORE_BUCKET)")
	flags.StringVar(&opts.key, "key", "", "object key for the s3 sink (default: derived from namespace)")

	return cmd
}

func runGenerate(cmd *cobra.Command, logger *slog.Logger, opts *generateOptions) error {
	ctx := cmd.Context()

	params, err := resolveParams(cmd, opts)
	if err != nil {
		return err
	}

	gen, err := metagen.New(params)
	if err != nil {
		return err
	}

	events, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	logger.Info("batch generated",
		"runs", params.Runs,
		"events", len(events),
		"namespace", gen.Namespace(),
	)

	target, err := buildSink(ctx, opts, gen.Namespace())
	if err != nil {
		return err
	}
	if err := target.Write(ctx, events); err != nil {
		return err
	}

	logger.Info("batch delivered", "sink", opts.sinkKind, "events", len(events))
	return nil
}

// resolveParams layers the profile (when given) under any flags the user set
// explicitly on the command line.
func resolveParams(cmd *cobra.Command, opts *generateOptions) (metagen.Params, error) {
	params := metagen.DefaultParams()
	if opts.profile != "" {
		loaded, err := metagen.LoadProfile(opts.profile)
		if err != nil {
			return metagen.Params{}, err
		}
		params = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("runs") {
		params.Runs = opts.runs
	}
	if flags.Changed("bytes-per-event") {
		params.BytesPerEvent = opts.bytesPerEvent
	}
	if flags.Changed("inputs-per-event") {
		params.InputsPerEvent = opts.inputsPerEvent
	}
	if flags.Changed("bytes-per-input") {
		params.BytesPerInput = opts.bytesPerInput
	}
	if flags.Changed("outputs-per-event") {
		params.OutputsPerEvent = opts.outputsPerEvent
	}
	if flags.Changed("bytes-per-output") {
		params.BytesPerOutput = opts.bytesPerOutput
	}
	if flags.Changed("fields-per-event") {
		params.FieldsPerEvent = opts.fieldsPerEvent
	}
	if flags.Changed("namespace") {
		params.Namespace = opts.namespace
	}
	if flags.Changed("time-zone") {
		params.TimeZone = opts.timeZone
	}
	if flags.Changed("seed") {
		params.Seed = opts.seed
	}
	return params, nil
}

func buildSink(ctx context.Context, opts *generateOptions, namespace string) (sink.Sink, error) {
	switch opts.sinkKind {
	case "file":
		return sink.NewFileSink(opts.output), nil

	case "http":
		return sink.NewHTTPSink(ctx, sink.HTTPConfig{
			URL:             opts.url,
			Timeout:         opts.timeout,
			EventsPerSecond: opts.eventsPerSecond,
			TokenURL:        opts.tokenURL,
			ClientID:        opts.clientID,
			ClientSecret:    opts.clientSecret,
			Scopes:          opts.scopes,
		})

	case "s3":
		cfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		if opts.bucket != "" {
			cfg.Bucket = opts.bucket
		}
		client, err := objectstore.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := objectstore.EnsureBucket(ctx, client, cfg); err != nil {
			return nil, err
		}
		key := opts.key
		if key == "" {
			key = fmt.Sprintf("%s/%d.json", namespace, time.Now().UTC().Unix())
		}
		obj, err := sink.NewObjectSink(client, cfg.Bucket, key)
		if err != nil {
			return nil, err
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("unknown sink %q (want file, http, or s3)", opts.sinkKind)
	}
}
