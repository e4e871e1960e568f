package api

import (
	"context"
	"flag"
	"log"

	"github.com/mitchellh/cli"
	"github.com/stevelaver/developer-portal-sub000/container"
	"github.com/stevelaver/developer-portal-sub000/extd"
)

const (
	ExitSuccess = 0
	ExitErr     = 1
)

type Cmd struct {
	flags      *flag.FlagSet
	appName    string
	appVersion string
	configFile string
}

func NewCmd(appName, appVersion string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			appName:    appName,
			appVersion: appVersion,
		}
		cmd.init()
		return cmd, nil
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("", "")

func (c *Cmd) init() {
	c.flags = flag.NewFlagSet("api", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml", "Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml", "Alias for config file to load")
}

func (c *Cmd) Help() string {
	return `Usage: ` + c.appName + ` api [-config=config.yml]

  Start the HTTP API server. This is also the default command.`
}

func (c *Cmd) Synopsis() string {
	return "start the HTTP API server"
}

func (c *Cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		log.Printf("error parsing argument: %s", err)
		return ExitErr
	}

	cfg, err := container.LoadConfig(c.configFile)
	if err != nil {
		log.Printf("error load config: %s", err)
		return ExitErr
	}

	if err = extd.RunServer(context.Background(), cfg, c.appVersion); err != nil {
		log.Printf("server stopped: %s", err)
		return ExitErr
	}

	return ExitSuccess
}
