package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/dkravets/weather-consensus/internal/coordinator"
	"github.com/dkravets/weather-consensus/internal/weather"
)

const (
	// streamRetryMs is the reconnect delay advertised to EventSource
	// clients.
	streamRetryMs = 4000

	// pingInterval is the keep-alive comment cadence; a failed ping write
	// is how a dead client is detected.
	pingInterval = 15 * time.Second
)

// openEventStream attaches the client to the city's snapshot feed over
// Server-Sent Events. The subscription outlives the handler and is torn
// down when a write to the client fails.
func openEventStream(c *fiber.Ctx, coord *coordinator.Coordinator, city string) error {
	sub := coord.Subscribe(context.Background(), city)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		if _, err := fmt.Fprintf(w, "retry: %d\n\n", streamRetryMs); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case snapshot, ok := <-sub.Updates:
				if !ok {
					return
				}
				if err := writeEvent(w, snapshot); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func writeEvent(w *bufio.Writer, snapshot *weather.CitySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
