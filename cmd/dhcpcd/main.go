// dhcpcd is a DHCPv4 client daemon: one state machine per managed
// interface, driven by a single cooperative event loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	nethttp "net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcingel/dhcpcd/internal/addrshim"
	"github.com/mcingel/dhcpcd/internal/arp"
	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/internal/dhcpclient"
	"github.com/mcingel/dhcpcd/internal/eventloop"
	"github.com/mcingel/dhcpcd/internal/hook"
	"github.com/mcingel/dhcpcd/internal/ioadapter"
	"github.com/mcingel/dhcpcd/internal/ipv4ll"
	"github.com/mcingel/dhcpcd/internal/logging"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

func main() {
	configPath := flag.String("config", "/etc/dhcpcd/config.toml", "path to configuration file")
	debugPort := flag.String("debug-port", "", "enable pprof debug server on this port (e.g. 6060)")
	logFormat := flag.String("log-format", "", "override the configured log format (text or json)")
	flag.Parse()

	if *debugPort != "" {
		go func() {
			addr := "127.0.0.1:" + *debugPort
			fmt.Fprintf(os.Stderr, "pprof debug server on http://%s/debug/pprof/\n", addr)
			if err := nethttp.ListenAndServe(addr, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server failed: %v\n", err)
			}
		}()
	}

	// SIGUSR1 dumps all goroutine stacks to /tmp/dhcpcd-goroutines.txt.
	go func() {
		sigUsr1 := make(chan os.Signal, 1)
		signal.Notify(sigUsr1, syscall.SIGUSR1)
		for range sigUsr1 {
			buf := make([]byte, 16*1024*1024)
			n := runtime.Stack(buf, true)
			path := "/tmp/dhcpcd-goroutines.txt"
			if err := os.WriteFile(path, buf[:n], 0644); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write goroutine dump: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "goroutine dump written to %s (%d bytes)\n", path, n)
			}
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("dhcpcd starting", "config", *configPath, "interfaces", len(cfg.Interfaces))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := eventloop.NewLoop(logger)
	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("event loop exited", "error", err)
		}
	}()

	sockets := ioadapter.NewSockets(logger)
	prober := arp.NewProber(logger)
	shim := addrshim.NewShim()
	hookRunner := hook.NewRunner(4, logger)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := nethttp.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := nethttp.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	if cfg.PIDFile != "" {
		if err := writePIDFile(cfg.PIDFile); err != nil {
			logger.Warn("failed to write PID file", "path", cfg.PIDFile, "error", err)
		} else {
			defer removePIDFile(cfg.PIDFile)
		}
	}

	engines := make(map[string]*dhcpclient.Engine, len(cfg.Interfaces))
	for i := range cfg.Interfaces {
		ifOpts := &cfg.Interfaces[i]
		eng, err := startInterface(ctx, ifOpts, cfg.LeaseDir, loop, sockets, prober, shim, hookRunner, logger)
		if err != nil {
			logger.Error("failed to start interface", "iface", ifOpts.Name, "error", err)
			continue
		}
		engines[ifOpts.Name] = eng
	}

	logger.Info("dhcpcd ready", "managed_interfaces", len(engines))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())
	cancel()
	hookRunner.Wait()
	logger.Info("dhcpcd stopped")
}

// startInterface brings up one managed interface: opens its raw and UDP
// sockets, constructs its Engine and IPv4LL fallback, starts the receive
// dispatch goroutine, then kicks off the state machine.
func startInterface(ctx context.Context, ifOpts *config.If, leaseDir string,
	loop *eventloop.Loop, sockets *ioadapter.Sockets, prober *arp.Prober, shim *addrshim.Shim,
	hookRunner *hook.Runner, logger *slog.Logger) (*dhcpclient.Engine, error) {

	ifi, err := net.InterfaceByName(ifOpts.Name)
	if err != nil {
		return nil, fmt.Errorf("looking up interface %s: %w", ifOpts.Name, err)
	}

	rawFD, err := sockets.OpenRaw(ifOpts.Name)
	if err != nil {
		return nil, fmt.Errorf("opening raw socket on %s: %w", ifOpts.Name, err)
	}
	if _, err := sockets.OpenUDP(ifOpts.Name); err != nil {
		return nil, fmt.Errorf("opening udp socket on %s: %w", ifOpts.Name, err)
	}

	ifLogger := logging.ForInterface(logger, ifOpts.Name)

	var fallback dhcpclient.IPv4LLFallback
	if ifOpts.IPv4LL {
		fallback = ipv4ll.NewFallback(prober, shim, hookRunner, ifi.HardwareAddr, ifOpts.HookScript, ifLogger)
	}

	eng := dhcpclient.NewEngine(ifOpts.Name, ifOpts, ifi.HardwareAddr, ifi.MTU, leaseDir,
		loop, sockets, prober, shim, hookRunner, fallback, ifLogger)

	go receiveLoop(ctx, ifOpts.Name, rawFD, sockets, loop, eng, ifLogger)

	loop.AddTimer(0, ifOpts.Name, func(string) { eng.Start(ctx) })

	return eng, nil
}

// receiveLoop reads raw frames for iface and hands decoded DHCP messages to
// the engine via a zero-delay timer, so HandleMessage always runs on the
// event loop's own goroutine even though the socket read itself blocks on a
// dedicated goroutine.
func receiveLoop(ctx context.Context, iface string, fd int, sockets *ioadapter.Sockets, loop *eventloop.Loop, eng *dhcpclient.Engine, logger *slog.Logger) {
	buf := make([]byte, dhcpv4.MaxPacketSize+64)
	for {
		if ctx.Err() != nil {
			return
		}
		n, partialCsum, err := sockets.RecvRaw(fd, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("raw receive failed", "error", err)
			continue
		}
		_, payload, ok := sockets.ValidUDP(buf, n, partialCsum)
		if !ok {
			continue
		}
		msg, err := dhcpv4.Decode(payload)
		if err != nil {
			logger.Debug("dropping undecodable message", "error", err)
			continue
		}
		opts, err := dhcpv4.ParseOptions(msg)
		if err != nil {
			logger.Debug("dropping message with unparsable options", "error", err)
			continue
		}
		msgTypeRes := opts.Lookup(dhcpv4.OptionDHCPMessageType)
		if msgTypeRes.Kind != dhcpv4.Present || len(msgTypeRes.Data) != 1 {
			continue
		}
		msgType := dhcpv4.MessageType(msgTypeRes.Data[0])

		loop.AddTimer(0, iface, func(string) {
			eng.HandleMessage(ctx, msg, opts, msgType)
		})
	}
}

func writePIDFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating PID directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

func removePIDFile(path string) {
	os.Remove(path)
}
