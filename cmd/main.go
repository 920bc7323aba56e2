package main

import (
	"log"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/app"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
