// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/tliron/commonlog"

	"jitcore/internal/inspector"
	"jitcore/internal/inspector/config"
)

func main() {
	commonlog.Configure(1, nil)

	cfg := config.Default()
	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			log.Printf("could not load config %s, using defaults: %s", os.Args[1], err)
		} else {
			cfg = loaded
		}
	}

	srv := inspector.NewServer()
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := srv.ServeWS(w, r); err != nil {
			log.Println("inspector connection closed:", err)
		}
	})

	log.Printf("jit-inspector listening on %s", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, nil); err != nil {
		log.Println("inspector server error:", err)
		os.Exit(1)
	}
}
