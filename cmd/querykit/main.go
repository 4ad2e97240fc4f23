package main

import "github.com/nimburion/querykit/pkg/cli"

func main() {
	cli.Execute(cli.NewCommand(cli.CommandOptions{
		Name:        "querykit",
		Description: "Render, run and migrate repository queries",
		ConfigPath:  "",
		EnvPrefix:   "QUERYKIT",
	}))
}
