package main

import (
	"log"
	"os"

	"github.com/gregoryekhator/debonairkent/apps/shared"
	"github.com/gregoryekhator/debonairkent/core"
	emailsvc "github.com/gregoryekhator/debonairkent/services/email"
	logsvc "github.com/gregoryekhator/debonairkent/services/logger"
)

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	repos, err := shared.OpenRepositories(conf, false)
	if err != nil {
		logger.Fatal("setting up database", err)
	}
	stack, err := shared.NewStack(conf, repos)
	if err != nil {
		_ = repos.Close()
		logger.Fatal("setting up services", err)
	}
	core.ParseEmailTemplates(logger)

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, std)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{stack: stack, mail: mailSvc, out: os.Stdout}
	err = cli.run(os.Args)
	_ = repos.Close()
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
