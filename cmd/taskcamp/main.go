package main

import "github.com/taskcamp/taskcamp/internal/cli"

func main() {
	cli.Execute()
}
