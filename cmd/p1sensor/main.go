// Command p1sensor is the sensor's single firmware-equivalent binary: it
// drains the P1 serial line, keeps the bounded telemetry history, predicts
// the upcoming quarter-hour peak, and serves all of it over HTTP and
// mDNS. Grounded on cmd/interpreter_api/main.go and cmd/meter_collector's
// split responsibilities, unified here the way a single-process firmware
// image unifies FreeRTOS tasks.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kwartiwi/p1sensor/pkg/config"
	"github.com/kwartiwi/p1sensor/pkg/discovery"
	"github.com/kwartiwi/p1sensor/pkg/httpapi"
	"github.com/kwartiwi/p1sensor/pkg/ingest"
	"github.com/kwartiwi/p1sensor/pkg/network"
	"github.com/kwartiwi/p1sensor/pkg/nvconfig"
	"github.com/kwartiwi/p1sensor/pkg/pathing"
	"github.com/kwartiwi/p1sensor/pkg/predictor"
	"github.com/kwartiwi/p1sensor/pkg/telemetry"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

func main() {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		log.SetFlags(log.Ltime | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	if err := config.Load(); err != nil {
		log.Fatalf("p1sensor: load config: %v", err)
	}
	nvconfig.InitializeDatabase()

	if err := bringUpNetwork(); err != nil {
		log.Printf("p1sensor: network bring-up: %v", err)
	}

	method, err := predictionMethod()
	if err != nil {
		log.Fatalf("p1sensor: %v", err)
	}

	store := telemetry.NewStore()
	reader := ingest.NewReader(config.Active.SerialDevice, config.Active.Baudrate, store)
	logger := ingest.NewLogger(store)
	predict := predictor.New(store, method)
	api := httpapi.New(store, config.Active.LockTimeout(), pathing.GetWebRootDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("p1sensor: shutting down")
		cancel()
	}()

	mdnsServer, err := advertise()
	if err != nil {
		log.Printf("p1sensor: mDNS advertisement disabled: %v", err)
	} else {
		defer mdnsServer.Close()
	}

	addr := fmt.Sprintf("%s:%d", config.Active.ListenAddress, config.Active.ListenPort)
	httpServer := &http.Server{Addr: addr, Handler: api.Router()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reader.Run(gctx) })
	g.Go(func() error { return logger.Run(gctx) })
	g.Go(func() error { return predict.Run(gctx) })
	g.Go(func() error { return api.RunBroadcaster(gctx) })
	g.Go(func() error {
		log.Printf("p1sensor: HTTP listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Active.LockTimeout())
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("p1sensor: fatal: %v", err)
	}
}

// bringUpNetwork joins the configured station network when the sensor is
// set up in STA mode. AP mode needs no action here: the host already
// owns the access point the way the original firmware's softAP does.
func bringUpNetwork() error {
	mode, err := nvconfig.GetDefault(nvconfig.KeyWifiMode, string(nvconfig.WifiModeAP))
	if err != nil {
		return err
	}
	if nvconfig.WifiMode(mode) != nvconfig.WifiModeSTA {
		return nil
	}
	ssid, err := nvconfig.Get(nvconfig.KeySTASSID)
	if err != nil {
		return err
	}
	if ssid == "" {
		return fmt.Errorf("STA mode configured but no SSID stored")
	}
	if err := network.JoinStationNetwork(ssid); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := network.AwaitReachable(ctx, "8.8.8.8", 2*time.Second); err != nil {
		log.Printf("p1sensor: station network not yet reachable: %v", err)
	}
	return nil
}

func predictionMethod() (predictor.Method, error) {
	raw, err := nvconfig.GetDefault(nvconfig.KeyPredictor, "0")
	if err != nil {
		return 0, fmt.Errorf("read prediction method: %w", err)
	}
	if raw == "1" {
		return predictor.MethodWeightedAverage, nil
	}
	return predictor.MethodLinearRegression, nil
}

func advertise() (*discovery.Server, error) {
	hostname, err := nvconfig.GetDefault(nvconfig.KeyHostname, config.Active.MDNSHostname)
	if err != nil {
		return nil, err
	}
	instance, err := nvconfig.GetDefault(nvconfig.KeyMDNSInstance, config.Active.MDNSInstanceName)
	if err != nil {
		return nil, err
	}
	_, port, err := net.SplitHostPort(fmt.Sprintf("%s:%d", config.Active.ListenAddress, config.Active.ListenPort))
	if err != nil {
		return nil, err
	}
	var portNum int
	if _, err := fmt.Sscanf(port, "%d", &portNum); err != nil {
		return nil, err
	}
	return discovery.Advertise(hostname, instance, portNum)
}
