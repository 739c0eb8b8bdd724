package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const healthTimeout = 5 * time.Second

type HealthCheckCommand struct{}

func (c *HealthCheckCommand) Name() string {
	return "health-check"
}

func (c *HealthCheckCommand) Description() string {
	return "Check /healthz, /readyz and /version of a running service"
}

func (c *HealthCheckCommand) Run(ctx context.Context, args []string) error {
	base := apiURL()
	if len(args) > 0 {
		base = args[0]
	}

	PrintHeader(fmt.Sprintf("Health Check (%s)", base))
	client := &http.Client{Timeout: healthTimeout}

	for _, path := range []string{"/healthz", "/readyz"} {
		start := time.Now()
		body, err := getJSON(ctx, client, base+path)
		if err != nil {
			PrintError("%s: %v", path, err)
			return err
		}
		if d := time.Since(start); d > time.Second {
			PrintWarning("%s slow response (%v)", path, d)
		}
		PrintSuccess("%s status=%s", path, gjson.GetBytes(body, "status").String())
	}

	body, err := getJSON(ctx, client, base+"/version")
	if err != nil {
		return err
	}
	PrintInfo("version=%s go=%s commit=%s",
		gjson.GetBytes(body, "version").String(),
		gjson.GetBytes(body, "go_version").String(),
		gjson.GetBytes(body, "git_commit").String())
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("status code %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}
	return body, nil
}
