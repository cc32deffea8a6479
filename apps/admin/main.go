package main

import (
	"log"
	"os"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/storage/database"
	documentdb "github.com/YOMIx224/student-conduct-system/storage/document"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	cli := commandLine{}

	// set up storage
	switch core.Conf.Storage {
	case "postgres":
		db, err := database.Open(core.Conf)
		errAndDie(err)
		defer db.Close()
		cli.db = db
		cli.usrRepo = database.NewUserRepository(db)
		cli.stuRepo = database.NewStudentRepository(db)
	default:
		db, err := documentdb.Open(core.Conf.Document.Dir)
		errAndDie(err)
		cli.usrRepo = documentdb.NewUserRepository(db)
		cli.stuRepo = documentdb.NewStudentRepository(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
