package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskgrid/internal/config"
)

func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration (file + environment + defaults)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configName, configPath...)
			if err != nil {
				return err
			}
			fmt.Printf("http_listen_addr:            %s\n", cfg.HTTPListenAddr)
			fmt.Printf("path_separator:               %s\n", cfg.PathSeparator)
			fmt.Printf("session_pool_max:             %d\n", cfg.SessionPoolMax)
			fmt.Printf("session_eviction_batch_size:  %d\n", cfg.SessionEvictionBatchSize)
			fmt.Printf("session_inactive_threshold:   %s\n", cfg.SessionInactiveThreshold)
			fmt.Printf("session_sweep_interval:       %s\n", cfg.SessionSweepInterval)
			fmt.Printf("pubsub_broker_dsn:            %s\n", cfg.PubSubBrokerDSN)
			fmt.Printf("queue_broker_dsn:             %s\n", cfg.QueueBrokerDSN)
			fmt.Printf("eventbus_channel:             %s\n", cfg.EventBusChannel)
			fmt.Printf("manifest_path:                %s\n", cfg.ManifestPath)
			return nil
		},
	})
	return cmd
}
