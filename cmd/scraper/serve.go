package main

import (
	"github.com/eosguide/relief-finder/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(debug *bool) *cobra.Command {
	var (
		addr string
		data string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated dataset over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return api.NewServer(data, logger).Start(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8081", "listen address")
	cmd.Flags().StringVar(&data, "data", "data/opportunities.json", "path to the generated dataset")
	return cmd
}
