// Command lt8618d brings up an LT8618SXB HDMI transmitter and exposes its
// power domain over HTTP. Run with -mock to use a simulated chip (no I2C
// device required).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/micro-nova/hdmitx/internal/api"
	"github.com/micro-nova/hdmitx/internal/auth"
	"github.com/micro-nova/hdmitx/internal/config"
	"github.com/micro-nova/hdmitx/internal/domain"
	"github.com/micro-nova/hdmitx/internal/events"
	"github.com/micro-nova/hdmitx/internal/hardware"
	"github.com/micro-nova/hdmitx/internal/lt8618"
	"github.com/micro-nova/hdmitx/internal/zeroconf"
)

type busCloser interface {
	hardware.Bus
	io.Closer
}

func main() {
	var (
		mock     = flag.Bool("mock", false, "use a simulated chip (no I2C device required)")
		addr     = flag.String("addr", ":8618", "HTTP listen address")
		cfgDir   = flag.String("config-dir", "", "config directory (default: ~/.config/lt8618)")
		debug    = flag.Bool("debug", false, "enable debug logging (includes every bus transaction)")
		i2cDev   = flag.String("i2c-dev", "/dev/i2c-1", "i2c-dev node of the bus the chip is on")
		i2cAddr  = flag.Uint("i2c-addr", uint(hardware.DefaultAddr), "7-bit I2C address of the chip")
		backend  = flag.String("backend", "ioctl", "bus backend: ioctl or periph")
		resetPin = flag.String("reset-pin", "", "GPIO pin wired to the chip's reset line (empty: no reset)")
		powerOn  = flag.Bool("power-on", false, "power the HDMI domain on after attach")
		mdns     = flag.Bool("mdns", true, "advertise the API over mDNS")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "lt8618")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Device configuration
	store := config.NewJSONStore(*cfgDir)
	cfg, err := store.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if _, err := os.Stat(store.Path()); errors.Is(err, os.ErrNotExist) {
		if err := store.Save(cfg); err != nil {
			slog.Warn("failed to write default config", "path", store.Path(), "err", err)
		}
	}
	slog.Info("device configuration",
		"input_mode", cfg.InputMode.String(),
		"output_mode", cfg.OutputMode.String(),
		"sample_frequency", cfg.SampleFrequency.String(),
		"audio_format", fmt.Sprintf("0x%06x", uint32(cfg.AudioFormat)),
		"ddr_clock", cfg.DDRClock,
	)

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The bus outlives ctx so the domain can still be powered off on shutdown.
	bus, err := openBus(*mock, *backend, *i2cDev, uint16(*i2cAddr), *resetPin)
	if err != nil {
		slog.Error("bus initialization failed", "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	evBus := events.NewBus()
	dom, err := domain.New(bus, cfg, evBus, lt8618.WithBusTrace(*debug))
	if err != nil {
		slog.Error("chip attach failed", "err", err)
		os.Exit(1)
	}
	st := dom.Status()
	slog.Info("chip attached", "chip_id", st.Identity, "variant", st.Variant)

	if *powerOn {
		if _, err := dom.PowerOn(ctx); err != nil {
			slog.Error("initial power on failed", "err", err)
		}
	}

	// Re-attach whenever the config file changes on disk.
	go func() {
		err := config.Watch(ctx, store.Path(), func() {
			cfg, err := store.Load()
			if err != nil {
				slog.Warn("config reload failed, keeping current configuration", "err", err)
				return
			}
			if _, err := dom.Reconfigure(ctx, cfg); err != nil {
				slog.Warn("reconfigure failed", "err", err)
			}
		})
		if err != nil {
			slog.Warn("config watcher failed", "err", err)
		}
	}()

	// Auth service
	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	// HTTP server
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(dom, store, authSvc, evBus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	// Zeroconf mDNS registration
	if *mdns {
		hostname, _ := os.Hostname()
		port := 80
		if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
			if p, err := strconv.Atoi(parts[1]); err == nil {
				port = p
			}
		}
		zc := zeroconf.New(hostname, port,
			"chip="+strings.ReplaceAll(st.Identity, " ", ""),
			"variant="+st.Variant,
			"api=/api",
		)
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	go func() {
		slog.Info("lt8618d listening", "addr", *addr, "mock", *mock, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	if dom.Status().Powered {
		if _, err := dom.PowerOff(shutCtx); err != nil {
			slog.Warn("power off on shutdown failed", "err", err)
		}
	}

	slog.Info("shutdown complete")
}

// openBus selects the register bus backend and optionally pulses the chip's
// reset line before anything talks to it.
func openBus(mock bool, backend, dev string, addr uint16, resetPin string) (busCloser, error) {
	if mock {
		slog.Info("using mock chip")
		return hardware.NewMock(), nil
	}

	if resetPin != "" {
		if err := hardware.ResetChip(resetPin); err != nil {
			return nil, err
		}
	}

	switch backend {
	case "ioctl":
		slog.Info("using i2c-dev bus", "dev", dev, "addr", fmt.Sprintf("0x%02x", addr))
		b, err := hardware.OpenI2C(context.Background(), dev, addr)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "periph":
		// periph names buses by number ("1"), not by device node.
		name := strings.TrimPrefix(dev, "/dev/i2c-")
		slog.Info("using periph.io bus", "bus", name, "addr", fmt.Sprintf("0x%02x", addr))
		b, err := hardware.OpenPeriph(context.Background(), name, addr)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown bus backend %q (want ioctl or periph)", backend)
	}
}
