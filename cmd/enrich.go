package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	badgerCache "tripsync/cache/badger"
	"tripsync/config"
	"tripsync/db/pg"
	"tripsync/image"
	"tripsync/trip"
)

func enrichCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "enrich",
		Short:   "run one enrichment pass",
		Long:    `This command loads one owner's trips from the database and fetches a destination image for every trip that does not have one yet, then exits.`,
		Example: `tripsync enrich --owner alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			cacheDir, _ := cmd.Flags().GetString("cache-dir")

			config.LoadEnv()
			ctx := context.Background()

			gormDB, err := pg.InitPostgresGORM(pg.CreateDSN())
			if err != nil {
				return err
			}
			defer pg.CloseGORM(gormDB)
			gateway := pg.NewGORMTripGateway(gormDB)

			cache, closeCache, err := badgerCache.Open(cacheDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeCache(); err != nil {
					log.Printf("Failed to close cache: %v", err)
				}
			}()

			store := trip.NewStore(owner, gateway, cache)
			store.LoadTrips(ctx)

			provider := image.NewPexelsClient(config.PexelsAPIKey())
			sched := trip.NewScheduler(store, provider)
			if err := sched.Run(ctx); err != nil {
				return err
			}

			pending := 0
			for _, t := range store.Trips() {
				if !t.HasArtifact() {
					pending++
				}
			}
			log.Printf("Enrichment pass finished, %d trips still pending.", pending)
			return nil
		},
	}

	cmd.Flags().StringP("owner", "w", "", "owner whose trips to enrich (required)")
	if err := cmd.MarkFlagRequired("owner"); err != nil {
		log.Fatal(err)
		return nil
	}
	cmd.Flags().String("cache-dir", "", "Directory for the local trip cache (empty = in-memory)")

	return cmd
}
