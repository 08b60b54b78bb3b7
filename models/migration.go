package models

import (
	"log"

	"bitbucket.org/mmdatafocus/billing_portal/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &User{},
		&Customer{},
		&Item{}, &ItemRequest{},
		&Quote{}, &QuoteItem{},
		&SalesOrder{}, &SalesOrderItem{},
		&Invoice{}, &InvoiceItem{}, &InvoiceActivity{},
		&Payment{}, &PaymentAllocation{}, &PaymentMode{},
		&Document{},
		&NotificationRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
