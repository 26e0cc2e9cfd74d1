package models

import (
	"log"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{}, &ProductSize{},
		&CartItem{},
		&FulfillmentOrder{}, &CustomerOrder{}, &OrderItem{}, &OrderStatusEvent{},
		&ProductReview{}, &ReturnRecord{},
		&SalesEvent{}, &SalesSummary{}, &SalesSummarySlot{},
		&OutboxRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
