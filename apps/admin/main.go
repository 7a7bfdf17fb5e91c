package main

import (
	"log"
	"os"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/storage/database"
	pgrepos "github.com/academiahq/academia/storage/database/postgres"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	workDir, err := os.Getwd()
	errAndDie(err)
	conf, err := core.LoadConfig(workDir)
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:       db,
		acctRepo: pgrepos.NewAccountRepository(db),
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
