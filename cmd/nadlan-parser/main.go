package main

import (
	"nadlan-parser/internal"

	"github.com/rs/zerolog/log"
)

func main() {
	application, err := internal.NewApp()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := application.Run(); err != nil {
		log.Fatal().Err(err).Msg("Application run failed")
	}
}
