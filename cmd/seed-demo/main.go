package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// Seeds a small demo catalog so a fresh environment has something to sell.
// Safe to re-run: products that already exist are skipped.
func main() {
	migrate := flag.Bool("migrate", true, "Run AutoMigrate before seeding")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if *migrate {
		models.MigrateTable()
	}

	ctx := context.Background()
	seeded := 0
	for _, input := range demoCatalog() {
		_, err := models.CreateProduct(ctx, input)
		if errors.Is(err, utils.ErrorDuplicateRecord) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed %q: %v\n", input.Name, err)
			os.Exit(1)
		}
		seeded++
	}

	fmt.Printf("seeded %d products\n", seeded)
}

func demoCatalog() []*models.NewProduct {
	sizes := func(stock int64) []models.NewProductSize {
		out := make([]models.NewProductSize, 0, 4)
		for _, s := range []string{"S", "M", "L", "XL"} {
			out = append(out, models.NewProductSize{Size: s, Stock: decimal.NewFromInt(stock)})
		}
		return out
	}

	return []*models.NewProduct{
		{
			Name:        "Classic Logo Tee",
			Sku:         "SL-TEE-001",
			Description: "Heavyweight cotton tee with the front logo print.",
			UnitPrice:   decimal.NewFromInt(500),
			Sizes:       sizes(25),
		},
		{
			Name:        "Oversized Hoodie",
			Sku:         "SL-HOOD-001",
			Description: "Fleece-lined oversized hoodie.",
			UnitPrice:   decimal.NewFromInt(1250),
			Sizes:       sizes(15),
		},
		{
			Name:        "Work Jacket",
			Sku:         "SL-JKT-001",
			Description: "Boxy canvas work jacket with corduroy collar.",
			UnitPrice:   decimal.NewFromInt(2100),
			Sizes:       sizes(8),
		},
		{
			Name:        "Five-Panel Cap",
			Sku:         "SL-CAP-001",
			Description: "Nylon five-panel cap, one size.",
			UnitPrice:   decimal.NewFromInt(450),
			Sizes:       []models.NewProductSize{{Size: "OS", Stock: decimal.NewFromInt(40)}},
		},
	}
}
