package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUser(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableAccount(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableLedgerEntry(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableAd(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableMessage(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableContentPack(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			log.Println("migration done")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate-config",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			defaults := []*models.Config{
				{Key: "CRONJOB_TIME_PREMIUM_REMINDER", Value: "0 * * * *"},
				{Key: "PREMIUM_REMINDER_HOURS", Value: "24"},
				{Key: "TRANSFER_LIMIT_PER_MINUTE", Value: "12"},
				{Key: "DEPOSIT_LIMIT_PER_MINUTE", Value: "6"},
			}

			for _, config := range defaults {
				err = datastore.UpsertConfig(ctx, db, config)
				if err != nil {
					log.Fatal(err)
				}
			}

			log.Println("config migration done")
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	godotenv.Load()
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
