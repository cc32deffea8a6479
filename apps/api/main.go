package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	echoapi "github.com/YOMIx224/student-conduct-system/apps/api/echo"
	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/conduct"
	"github.com/YOMIx224/student-conduct-system/core/student"
	"github.com/YOMIx224/student-conduct-system/core/user"
	emailsvc "github.com/YOMIx224/student-conduct-system/services/email"
	logsvc "github.com/YOMIx224/student-conduct-system/services/logger"
	"github.com/YOMIx224/student-conduct-system/storage/database"
	documentdb "github.com/YOMIx224/student-conduct-system/storage/document"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	var stuRepo student.Repository
	var vioRepo conduct.Repository
	var usrRepo user.Repository

	switch conf.Storage {
	case "postgres":
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("failed to close database", err)
			}
		}()
		stuRepo = database.NewStudentRepository(db)
		vioRepo = database.NewViolationRepository(db)
		usrRepo = database.NewUserRepository(db)
	default:
		db, err := documentdb.Open(conf.Document.Dir)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up document store: %v", err), err)
		}
		stuRepo = documentdb.NewStudentRepository(db)
		vioRepo = documentdb.NewViolationRepository(db)
		usrRepo = documentdb.NewUserRepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	stuSvc := student.NewService(stuRepo)
	conductSvc := conduct.NewService(vioRepo, stuRepo, mailSvc)
	usrSvc := user.NewService(usrRepo, stuRepo, mailSvc)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Address(),
		Logger:     logger,
		StudentSvc: stuSvc,
		ConductSvc: conductSvc,
		UserSvc:    usrSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address()))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
