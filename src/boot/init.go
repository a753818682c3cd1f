package boot

import (
	"log"
	"tenanthub/src/common"
	"tenanthub/src/db"
	"tenanthub/src/lib"
	"tenanthub/src/models"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Booking{},
		&models.TimelineEntry{},
		&models.PaymentRecord{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the reconciliation sweep for stale pending payment
// records.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(common.ExpirePendingPayments, 5*time.Minute)
	if err != nil {
		log.Printf("Error scheduling reconciliation sweep: %s\n", err.Error())
		return
	}
	log.Printf("Scheduled reconciliation sweep: %s\n", *id)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
