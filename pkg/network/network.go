// Package network provides the station-mode reachability probe and
// fallback join glue named by spec.md §1 as an out-of-scope collaborator
// whose interface this repository still implements. Grounded on
// solarinverter/service.go's ping-before-connect health check and its
// nmcli-based Wi-Fi reconnection, repurposed from "is the inverter up"
// to "is the station network up".
package network

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Reachable sends a single unprivileged (UDP, no root needed) ping to
// host and reports whether it answered within timeout.
func Reachable(host string, timeout time.Duration) (bool, time.Duration, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return false, 0, err
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	if err := pinger.Run(); err != nil {
		return false, 0, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		return true, stats.AvgRtt, nil
	}
	return false, 0, fmt.Errorf("network: no response from %s", host)
}

// JoinStationNetwork brings up a pre-configured NetworkManager connection.
// Wi-Fi radio bring-up itself is the out-of-scope driver-glue layer named
// by spec.md §1; this only drives the host's network manager the same
// way the teacher repository does for its own Wi-Fi fallback.
func JoinStationNetwork(connectionID string) error {
	if err := exec.Command("nmcli", "connection", "up", connectionID).Run(); err != nil {
		return fmt.Errorf("network: bring up %q: %w", connectionID, err)
	}
	return nil
}

// AwaitReachable retries Reachable at interval until host answers or ctx
// is done.
func AwaitReachable(ctx context.Context, host string, interval time.Duration) error {
	for {
		if ok, _, _ := Reachable(host, 2*time.Second); ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
