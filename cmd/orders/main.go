// Command orders prints the most recently reconciled orders.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/dto"
	"storefront/internal/repository"
	"storefront/internal/service"
	"time"
)

func main() {
	limit := flag.Int("n", 5, "number of orders to show")
	flag.Parse()

	if err := run(*limit); err != nil {
		fmt.Fprintf(os.Stderr, "orders: %v\n", err)
		os.Exit(1)
	}
}

func run(limit int) error {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	db, err := client.InitDatabase(dbCfg.Driver, dbCfg.URL)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := service.NewOrderService(repository.NewOrderRepository(db)).ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return nil
	}

	for _, o := range orders {
		fmt.Printf("%s  %s  %-7s  %-14s  %s  %s\n",
			o.ID,
			o.CreatedAt.Format(time.RFC3339),
			o.Status,
			dto.FormatAmount(o.Total, o.Currency),
			dto.MaskEmail(o.Email),
			o.StripePaymentID,
		)
	}
	return nil
}
