package main

import (
	"errors"

	"github.com/YOMIx224/student-conduct-system/storage/database"
)

var (
	migrateFunc = database.Migrate // mockable

	errMigrateNeedsDB = errors.New("migrate requires postgres storage")
)

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	if cli.db == nil {
		return errMigrateNeedsDB
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(cli.db, args[0], arguments...)
}
