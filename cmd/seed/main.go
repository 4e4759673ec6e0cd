package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
)

const seedActor = "seed"

// Seeds a dev database with a small catalog, per-store stock and a batch of
// sales history. Not meant to run against anything but a local database.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Error(ctx, "refusing to seed a prod environment", nil)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	if err := seed(ctx, dbClient); err != nil {
		logg.Error(ctx, "seeding failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "database seeded")
}

func seed(ctx context.Context, client *db.Client) error {
	now := time.Now().UTC()

	products := []models.Product{
		{ID: "P001", Name: "T-Shirt", Category: "Clothing", Price: decimal.RequireFromString("19.99"), SupplierID: "S001"},
		{ID: "P002", Name: "Jeans", Category: "Clothing", Price: decimal.RequireFromString("49.99"), SupplierID: "S001"},
		{ID: "P003", Name: "Sneakers", Category: "Footwear", Price: decimal.RequireFromString("79.99"), SupplierID: "S002"},
	}
	stores := []string{"store1", "store2", "store3"}

	return client.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range products {
			products[i].CreatedBy = seedActor
			products[i].CreatedAt = now
			products[i].UpdatedBy = seedActor
			products[i].UpdatedAt = now
		}
		if err := tx.Create(&products).Error; err != nil {
			return err
		}

		records := make([]models.StockRecord, 0, len(stores)*len(products))
		for _, store := range stores {
			for _, product := range products {
				records = append(records, models.StockRecord{
					StoreID:       store,
					ProductID:     product.ID,
					StockLevel:    rand.Intn(96) + 5,
					MinThreshold:  20,
					LastUpdatedBy: seedActor,
					LastUpdatedAt: now,
				})
			}
		}
		if err := tx.Create(&records).Error; err != nil {
			return err
		}

		events := make([]models.SaleEvent, 0, 50)
		for i := 0; i < 50; i++ {
			events = append(events, models.SaleEvent{
				ID:         uuid.New(),
				StoreID:    stores[rand.Intn(len(stores))],
				ProductID:  products[rand.Intn(len(products))].ID,
				Quantity:   rand.Intn(10) + 1,
				OccurredAt: now.Add(-time.Duration(rand.Intn(14*24)) * time.Hour),
				RecordedBy: seedActor,
			})
		}
		return tx.Create(&events).Error
	})
}
