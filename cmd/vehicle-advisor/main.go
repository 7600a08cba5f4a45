package main

import (
	"os"

	"github.com/joelkehle/vehicle-advisor/internal/logger"
)

var version = "dev"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Log.Error(err)
		os.Exit(1)
	}
}
