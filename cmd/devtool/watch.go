package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

type WatchCommand struct{}

func (c *WatchCommand) Name() string {
	return "watch"
}

func (c *WatchCommand) Description() string {
	return "Stream linking events from /api/v1/events (optional: attempt id)"
}

func (c *WatchCommand) Run(ctx context.Context, args []string) error {
	q := url.Values{}
	if len(args) > 0 {
		q.Set("attempt_id", args[0])
	}
	target := apiURL() + "/api/v1/events"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if key := os.Getenv("API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	PrintHeader("Watching " + target)
	err = readEvents(resp.Body, printEvent)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readEvents calls fn with the data line of each SSE message.
func readEvents(r io.Reader, fn func(data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			fn(data)
		}
	}
	return scanner.Err()
}

func printEvent(data string) {
	evt := gjson.Parse(data)
	switch typ := evt.Get("type").String(); typ {
	case "keepalive":
		return
	case "connected":
		PrintSuccess("connected as %s", evt.Get("payload.client_id").String())
	case "snapshot":
		line := fmt.Sprintf("[%s] phase=%s", evt.Get("attempt_id").String(), evt.Get("payload.phase").String())
		if e := evt.Get("payload.snapshot.error.kind"); e.Exists() {
			PrintWarning("%s error=%s", line, e.String())
			return
		}
		PrintInfo("%s", line)
	default:
		PrintInfo("[%s] %s %s", evt.Get("attempt_id").String(), typ, evt.Get("payload").Raw)
	}
}
