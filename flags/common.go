package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

func NewApp() *cli.App {

	app := cli.NewApp()
	app.Name = "chainspec-builder"
	app.Usage = "Utility for building chain specification files"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	return app

}
