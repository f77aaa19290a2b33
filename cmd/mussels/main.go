package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()

	if err := Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
