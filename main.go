package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/eventlabs/event-reg-api/api/handlers"

	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	a.Initialize() //initialize database, router and background jobs

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("event-reg-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
