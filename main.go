package main

import (
	"os"

	"github.com/hourly-hadith/hadith-inspect/cmd"
)

var Version = "develop"

func main() {
	if err := cmd.NewRootCmd(Version).Execute(); err != nil {
		os.Exit(1)
	}
}
