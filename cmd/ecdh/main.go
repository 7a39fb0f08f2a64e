package main

import (
	"os"

	"github.com/smallyu/go-ecdh/internal/logging"
)

var log = logging.Logger

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
