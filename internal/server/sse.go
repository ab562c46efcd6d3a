package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"
)

// streamChat writes a model reply stream as server-sent events. Each
// content fragment is one `data: {"content": ...}` event; the stream
// is terminated by exactly one of `{"done": true}` or `{"error": ...}`.
func streamChat(w http.ResponseWriter, sr *schema.StreamReader[*schema.Message]) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			writeEvent(w, flusher, map[string]any{"done": true})
			return
		}
		if err != nil {
			log.Printf("[server] stream error: %v", err)
			writeEvent(w, flusher, map[string]any{"error": err.Error()})
			return
		}
		if msg.Content == "" {
			continue
		}
		writeEvent(w, flusher, map[string]any{"content": msg.Content})
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if flusher != nil {
		flusher.Flush()
	}
}
