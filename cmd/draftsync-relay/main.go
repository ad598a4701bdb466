package main

import (
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/relay"
)

type config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	CatalogFile string `env:"CATALOG_FILE"`
}

func main() {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	catalog := draft.BuiltinCatalog()
	if cfg.CatalogFile != "" {
		var err error
		catalog, err = draft.ParseCatalogFile(cfg.CatalogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	srv := relay.NewServer(catalog)
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("draftsync relay listening on http://localhost:%d (%d cards in catalog)", cfg.Port, catalog.Size())
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
