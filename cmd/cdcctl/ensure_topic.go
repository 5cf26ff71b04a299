package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Gunvolt24/cdc_ingest/config"
	"github.com/Gunvolt24/cdc_ingest/internal/broker"
	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/logger"
	"github.com/Gunvolt24/cdc_ingest/pkg/metrics"
	"github.com/spf13/cobra"
)

type ensureTopicOptions struct {
	brokers     []string
	topic       string
	partitions  int
	replication int
	attempts    int
	backoff     time.Duration
	backoffMax  time.Duration
	leaderWait  time.Duration
	dialTimeout time.Duration
	file        string
	dryRun      bool
}

// newEnsureTopicCmd — тот же провижининг, что при старте сервиса; значения по умолчанию из CDC_KAFKA_*.
func newEnsureTopicCmd() *cobra.Command {
	var opts ensureTopicOptions

	cmd := &cobra.Command{
		Use:   "ensure-topic",
		Short: "Create the CDC topic(s) with capped linear backoff; existing topics are accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnsureTopic(cmd, opts)
		},
	}

	// значения по умолчанию берутся из окружения сервиса
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Config{}
	}
	k := cfg.Kafka

	f := cmd.Flags()
	f.StringSliceVar(&opts.brokers, "brokers", k.Brokers, "bootstrap brokers (comma-separated)")
	f.StringVar(&opts.topic, "topic", k.Topic, "topic name (ignored with --file)")
	f.IntVar(&opts.partitions, "partitions", max(k.TopicPartitions, 1), "partitions for new topics")
	f.IntVar(&opts.replication, "replication", max(k.TopicReplication, 1), "replication factor for new topics")
	f.IntVar(&opts.attempts, "attempts", max(k.TopicCreateAttempts, 1), "max provisioning attempts per topic")
	f.DurationVar(&opts.backoff, "backoff", k.TopicCreateBackoff, "linear backoff unit")
	f.DurationVar(&opts.backoffMax, "backoff-max", k.TopicCreateBackoffMax, "backoff ceiling")
	f.DurationVar(&opts.leaderWait, "leader-wait", k.TopicLeaderWait, "leader election wait per attempt")
	f.DurationVar(&opts.dialTimeout, "dial-timeout", k.DialTimeout, "broker dial timeout")
	f.StringVarP(&opts.file, "file", "f", "", "YAML file with topics to create")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print what would be created and exit")

	return cmd
}

func runEnsureTopic(cmd *cobra.Command, opts ensureTopicOptions) error {
	defaults := domain.TopicSpec{Name: opts.topic, Partitions: opts.partitions, ReplicationFactor: opts.replication}

	specs := []domain.TopicSpec{defaults}
	if opts.file != "" {
		var err error
		if specs, err = loadTopicsFile(opts.file, defaults); err != nil {
			return err
		}
	}

	if opts.dryRun {
		for _, s := range specs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s partitions=%d replication=%d\n", s.Name, s.Partitions, s.ReplicationFactor)
		}
		return nil
	}

	logg, cleanup, err := logger.NewZapLogger(false)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()
	metrics.MustRegister()

	conn, err := broker.NewConnection(opts.brokers, opts.dialTimeout)
	if err != nil {
		return err
	}
	prov := broker.NewProvisioner(conn, broker.Policy{
		MaxAttempts: opts.attempts,
		BaseBackoff: opts.backoff,
		MaxBackoff:  opts.backoffMax,
		LeaderWait:  opts.leaderWait,
	}, logg)

	return ensureTopics(cmd.Context(), prov, specs, cmd.OutOrStdout())
}

// ensureTopics — провижининг по порядку; первая неудача прерывает проход.
func ensureTopics(ctx context.Context, prov ports.TopicProvisioner, specs []domain.TopicSpec, out io.Writer) error {
	for _, s := range specs {
		if err := prov.EnsureTopic(ctx, s); err != nil {
			return fmt.Errorf("ensure topic %q: %w", s.Name, err)
		}
		fmt.Fprintf(out, "topic %s ready\n", s.Name)
	}
	return nil
}
