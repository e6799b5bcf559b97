package main

import (
	"flag"
	"os"

	"github.com/rotisk95/Thalionyx/fragmentservice"
)

func main() {
	// Optional driver flag override (sqlite | postgres)
	dbDriver := flag.String("db-driver", "", "Override THALIONYX_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	if *dbDriver != "" {
		_ = os.Setenv("THALIONYX_DB_DRIVER", *dbDriver)
	}

	if err := fragmentservice.Run(); err != nil {
		os.Exit(1)
	}
}
