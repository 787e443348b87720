package main

import (
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
