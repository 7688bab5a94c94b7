package cmd

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "tripsync",
	Short: "sync trips and enrich them with destination images",
	Long:  `tripsync keeps a user's trips in sync between a remote store and a local cache, and decorates each trip with a destination background image fetched in the background`,
}

func init() {
	RootCmd.AddCommand(serverCommand())
	RootCmd.AddCommand(migrateCommand())
	RootCmd.AddCommand(enrichCommand())
}
