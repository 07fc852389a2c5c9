package models

import (
	"log"

	"bitbucket.org/mmdatafocus/erp_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&NumberSequence{}, &TransactionNumberSeries{}, &TransactionNumberSeriesModule{},
		&Customer{}, &Supplier{},
		&SalesInvoice{}, &CustomerPayment{}, &SalesReturn{}, &CustomerNote{},
		&Purchase{}, &SupplierPayment{}, &PurchaseReturn{}, &SupplierNote{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
