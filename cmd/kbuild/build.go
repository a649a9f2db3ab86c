package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/multierr"

	"github.com/birdayz/kbuild"
	"github.com/birdayz/kbuild/extensions/core"
	"github.com/birdayz/kbuild/internal/atomicfile"
	"github.com/birdayz/kbuild/kevents"
	"github.com/birdayz/kbuild/kmanifest"
	"github.com/birdayz/kbuild/kstate"
	"github.com/birdayz/kbuild/kstate/pebble"
	"github.com/birdayz/kbuild/kstate/s3"
	"github.com/birdayz/kbuild/pkg/log"
)

const envPrefix = "KBUILD"

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "kbuild",
		Short:         "Run the build steps contributed by the linked extensions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runBuild(cmd.Context(), v, cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.Int("parallelism", 1, "maximum number of steps running at once")
	f.String("build-id", "", "build identifier (default random)")
	f.String("log-level", "info", "log level")
	f.String("log-format", string(log.FormatConsole), "log format: console or json")
	f.String("manifest-out", "", "write the build manifest to this file")
	f.String("state-dir", "", "keep manifests in a pebble store under this directory")
	f.String("s3-endpoint", "", "keep manifests in this S3 endpoint")
	f.String("s3-bucket", "kbuild", "S3 bucket")
	f.String("s3-prefix", "", "S3 object prefix")
	f.String("s3-access-key", "", "S3 access key")
	f.String("s3-secret-key", "", "S3 secret key")
	f.Bool("s3-secure", true, "use TLS for S3")
	f.StringSlice("kafka-brokers", nil, "publish build events to these brokers")
	f.String("events-topic", "kbuild-events", "topic for build events")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func runBuild(ctx context.Context, v *viper.Viper, out io.Writer) (err error) {
	zl, err := log.New(os.Stderr, v.GetString("log-level"), log.Format(v.GetString("log-format")))
	if err != nil {
		return err
	}
	logger := log.Logr(zl).WithName("kbuild")

	buildID := v.GetString("build-id")
	if buildID == "" {
		buildID = uuid.NewString()
	}
	logger = logger.WithValues("build", buildID)

	opts := []kbuild.Option{
		kbuild.WithLogr(logger.WithName("scheduler")),
		kbuild.WithParallelism(v.GetInt("parallelism")),
	}

	if brokers := v.GetStringSlice("kafka-brokers"); len(brokers) > 0 {
		pub, closeEvents, openErr := openEvents(ctx, brokers, v.GetString("events-topic"), buildID, logger)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, closeEvents()) }()
		opts = append(opts, kbuild.WithObserver(pub))
	}

	logger.Info("Running build", "steps", kbuild.DefaultRegistry().Len())
	res, buildErr := kbuild.DefaultRegistry().Run(ctx, opts...)
	if res == nil {
		return buildErr
	}
	fmt.Fprintln(out, core.InstalledFeatures(res))

	m, err := kmanifest.FromResult(res, buildID)
	if err != nil {
		return multierr.Append(buildErr, err)
	}

	if path := v.GetString("manifest-out"); path != "" {
		if err := writeManifest(path, m); err != nil {
			return multierr.Append(buildErr, err)
		}
	}

	store, err := openStore(ctx, v)
	if err != nil {
		return multierr.Append(buildErr, err)
	}
	if store != nil {
		defer func() { err = multierr.Append(err, store.Close()) }()
		if err := recordManifest(ctx, store, m, out, logger); err != nil {
			return multierr.Append(buildErr, err)
		}
	}

	return buildErr
}

func openEvents(ctx context.Context, brokers []string, topic, buildID string, logger logr.Logger) (*kevents.Publisher, func() error, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, nil, err
	}
	if err := kevents.EnsureTopic(ctx, kadm.NewClient(client), topic, 1, 1); err != nil {
		client.Close()
		return nil, nil, err
	}
	pub := kevents.NewPublisher(ctx, client, topic, buildID, kevents.WithLogr(logger.WithName("events")))
	return pub, func() error {
		defer client.Close()
		return pub.Close(ctx)
	}, nil
}

func openStore(ctx context.Context, v *viper.Viper) (kstate.Store, error) {
	switch {
	case v.GetString("state-dir") != "":
		return pebble.Open(v.GetString("state-dir"), "manifests")
	case v.GetString("s3-endpoint") != "":
		return s3.New(ctx, "manifests", s3.Config{
			Endpoint:  v.GetString("s3-endpoint"),
			AccessKey: v.GetString("s3-access-key"),
			SecretKey: v.GetString("s3-secret-key"),
			Bucket:    v.GetString("s3-bucket"),
			Prefix:    v.GetString("s3-prefix"),
			Secure:    v.GetBool("s3-secure"),
		})
	default:
		return nil, nil
	}
}

func writeManifest(path string, m kmanifest.Manifest) error {
	b, err := kmanifest.Encode(m)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, b, 0o644)
}

// recordManifest compares m with the previous build and stores it.
func recordManifest(ctx context.Context, store kstate.Store, m kmanifest.Manifest, out io.Writer, logger logr.Logger) error {
	manifests := kstate.NewTypedStore(store, kmanifest.Serde)

	prev, ok, err := manifests.Latest(ctx)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		logger.Info("No previous build to compare with")
	case kmanifest.SameContent(prev, m):
		fmt.Fprintf(out, "Build output identical to %s\n", prev.BuildID)
	default:
		fmt.Fprintf(out, "Build output differs from %s\n", prev.BuildID)
	}

	return manifests.Put(ctx, m.BuildID, m)
}
