package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cardroom/internal/config"
	"cardroom/internal/ports/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using process environment")
	}

	if path := os.Getenv("CARDROOM_CONFIG"); path != "" {
		if err := config.Load(path); err != nil {
			log.WithError(err).Fatal("load game config")
		}
	}

	addr := os.Getenv("CARDROOM_RELAY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	hub := ws.NewHub(log)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.WithField("addr", addr).Info("relay listening")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.WithError(err).Fatal("relay stopped")
	}
}
