package main

import (
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/mitchellh/cli"
	"github.com/stevelaver/developer-portal-sub000/assets"
	"github.com/stevelaver/developer-portal-sub000/cmd/api"
	"github.com/stevelaver/developer-portal-sub000/cmd/gen/genapidoc"
	"github.com/stevelaver/developer-portal-sub000/cmd/migrate"
)

func main() {
	const appVersion = "1.0.0"

	apiCmd := api.NewCmd(assets.ServiceName, appVersion)

	c := cli.NewCLI(assets.ServiceName, appVersion)
	c.Args = os.Args[1:]
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"":        apiCmd, // default command if no subcommand defined
		"api":     apiCmd,
		"migrate": migrate.NewCmd(assets.ServiceName),
		"apidoc": func() (cli.Command, error) {
			return genapidoc.NewApiDocCmd(genapidoc.ApiDocCfg{AppVersion: appVersion})
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
