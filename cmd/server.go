package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"tripsync/mq/mq"
	"tripsync/web"
)

func serverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `This command starts the web server for the application.`,
		Run: func(cmd *cobra.Command, args []string) {
			isDev := cmd.Flags().Lookup("dev").Value.String() == "true"
			port := cmd.Flags().Lookup("port").Value.String()
			mqMode := cmd.Flags().Lookup("mq").Value.String()
			cacheDir := cmd.Flags().Lookup("cache-dir").Value.String()

			// Start the web server
			if err := web.Serve(web.ServiceConfig{
				IsDev:    isDev,
				Port:     port,
				MqMode:   mq.Mode(mqMode),
				CacheDir: cacheDir,
			}); err != nil {
				log.Fatalf("server stopped: %v", err)
			}
		},
	}

	cmd.Flags().Bool("dev", true, "Run in development mode")
	cmd.Flags().String("port", "8080", "Port to run the web server on")
	cmd.Flags().String("mq", "go_chan", "Message queue mode (go_chan, rabbitmq, gcp_pub_sub)")
	cmd.Flags().String("cache-dir", "", "Directory for the local trip cache (empty = in-memory)")

	return cmd
}
