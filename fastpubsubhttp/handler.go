// Package fastpubsubhttp is a thin HTTP surface over a core.Broker's
// probes: /consumers/info, /consumers/alive, /consumers/ready. The core
// itself never imports net/http; this package exists so transport concerns
// stay out of the runtime.
package fastpubsubhttp

import (
	"encoding/json"
	"net/http"

	"github.com/fastpubsub/fastpubsub/core"
)

// Handler mounts /consumers/info, /consumers/alive, /consumers/ready over
// broker's probes.
func Handler(broker *core.Broker) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/consumers/alive", func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, broker.Alive())
	})
	mux.HandleFunc("/consumers/ready", func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, broker.Ready())
	})
	mux.HandleFunc("/consumers/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(broker.Info())
	})

	return mux
}

func writeProbe(w http.ResponseWriter, ok bool) {
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
