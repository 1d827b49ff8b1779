package boot

import (
	"apms/src/db"
	"apms/src/lib"
	"apms/src/models"
	"apms/src/utils"
	"log"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.Maintenance{},
		&models.Reservation{},
		&models.Announcement{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler registers the overdue-dues sweep and the reminder mailer.
// Both run daily, sweep before reminders.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateDailyCronJob(utils.MarkOverduePayments, 6, 0); err != nil {
		log.Printf("Error scheduling overdue sweep: %s\n", err.Error())
	}
	if _, err := lib.CreateDailyCronJob(utils.SendPaymentReminders, 9, 0); err != nil {
		log.Printf("Error scheduling payment reminders: %s\n", err.Error())
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
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
		return
	}
}
