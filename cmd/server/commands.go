package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/cache"
	"github.com/viajante/agency-analytics/config"
	"github.com/viajante/agency-analytics/events"
	"github.com/viajante/agency-analytics/sample"
	"github.com/viajante/agency-analytics/store/sqlite"
)

// deps are the long-lived resources shared by serve and import.
type deps struct {
	Store   *sqlite.Store
	Service *agency.Service

	closers []func() error
}

// openDeps opens the store and the optional cache and publisher. An
// unreachable Redis or RabbitMQ is logged and skipped.
func openDeps(cfg *config.Config) (*deps, error) {
	store, err := sqlite.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	d := &deps{Store: store, closers: []func() error{store.Close}}

	var opts []agency.Option
	if cfg.RedisAddr != "" {
		c, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "viajante")
		if err != nil {
			log.Warningf("Aggregation cache disabled: %v", err)
		} else {
			log.Infof("Aggregation cache on %s (ttl %v)", cfg.RedisAddr, cfg.CacheTTL)
			opts = append(opts, agency.WithCache(c, cfg.CacheTTL))
			d.closers = append(d.closers, c.Close)
		}
	}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Warningf("Import events disabled: %v", err)
		} else {
			log.Infof("Publishing import events to queue %s", cfg.AMQPQueue)
			opts = append(opts, agency.WithEvents(p))
			d.closers = append(d.closers, p.Close)
		}
	}

	d.Service = agency.NewService(store, opts...)
	return d, nil
}

// Close releases resources in reverse opening order.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warningf("close: %v", err)
		}
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Replace the agency tables with a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			d, err := openDeps(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			summary, err := d.Service.ImportWorkbook(context.Background(), filepath.Base(path), data)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

func newSampleCmd() *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "sample <out.xlsx>",
		Short: "Write a demo agency workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := sample.Workbook(scenario)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", args[0], scenario)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "demo", "scenario id: demo, minimo")
	return cmd
}
