package main

import "silkmaker-backend/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
