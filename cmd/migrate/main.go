package main

import (
	"log"

	"github.com/zagwe-games/bingo-rooms/config"
)

func main() {
	config.LoadEnv()
	db := config.SetupDatabase() // connects + migrates
	_ = db
	log.Println("✅ Database migration completed successfully")
}
