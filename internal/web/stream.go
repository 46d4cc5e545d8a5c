package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hoyack/gemsieve/internal/pipeline"
)

// handlePipelineStream server-pushes live pipeline events as they're
// published on the configured redis channel: "[STARTED] run_id stage",
// "[DONE] run_id stage items", "[FAILED] run_id stage error" (§6.5).
// Without a configured redis address the stream stays open and pings only
// — there is simply nothing to relay.
func (s *Server) handlePipelineStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	ping := time.NewTicker(15 * time.Second)
	defer ping.Stop()

	if s.redis == nil {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				fmt.Fprintf(w, "event: ping\ndata: {}\n\n")
				flusher.Flush()
			}
		}
	}

	sub := s.redis.Subscribe(ctx, s.cfg.Events.Channel)
	defer sub.Close()
	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			var evt pipeline.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, msg.Payload)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
