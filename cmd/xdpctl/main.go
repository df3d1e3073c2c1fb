//go:build linux

// Command xdpctl drives an AF_XDP socket against a network interface:
// allocate a UMEM, build an anchor ring set, steer it into an XSKMAP, and
// report ring/statistics counters until interrupted.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penguintech/afxdp/internal/logging"
	"github.com/penguintech/afxdp/internal/xdpmetrics"
	"github.com/penguintech/afxdp/internal/xdpprog"
	"github.com/penguintech/afxdp/ringset"
	"github.com/penguintech/afxdp/xdpumem"
	"github.com/penguintech/afxdp/xskmap"
)

var (
	version = "v0.1.0"
)

type xdpctlMarker struct{ name string }

func main() {
	rootCmd := &cobra.Command{
		Use:     "xdpctl",
		Short:   "Attach an AF_XDP socket to a network interface queue",
		Version: version,
		RunE:    run,
	}

	rootCmd.Flags().StringP("interface", "i", "", "network interface to bind (required)")
	rootCmd.Flags().Uint32P("queue", "q", 0, "queue id to bind")
	rootCmd.Flags().String("bpf-object", "", "path to the XDP program object file that redirects into the XSKMAP (required)")
	rootCmd.Flags().String("bpf-map", "xsks_map", "name of the XSKMAP within --bpf-object")
	rootCmd.Flags().Bool("attach", false, "load --bpf-object and attach its program to --interface, instead of assuming it is already attached")
	rootCmd.Flags().String("bpf-prog", "xdp_redirect", "name of the XDP program within --bpf-object, used with --attach")
	rootCmd.Flags().Uint32("chunk-size", 2048, "UMEM chunk size in bytes")
	rootCmd.Flags().Uint32("num-chunks", 4096, "number of UMEM chunks")
	rootCmd.Flags().Uint32("headroom", 0, "per-chunk headroom reserved for the kernel")
	rootCmd.Flags().Uint32("ring-size", 2048, "FILL/COMPLETION/RX/TX ring size, power of two")
	rootCmd.Flags().Bool("zero-copy", false, "request zero-copy mode (binding fails if the driver does not support it; no copy-mode fallback)")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Uint16("metrics-port", 9453, "Prometheus metrics listen port")

	viper.BindPFlags(rootCmd.Flags())
	viper.SetEnvPrefix("XDPCTL")
	viper.AutomaticEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ifaceName := viper.GetString("interface")
	objPath := viper.GetString("bpf-object")
	if ifaceName == "" || objPath == "" {
		return fmt.Errorf("--interface and --bpf-object are required")
	}

	log := logging.New(viper.GetString("log-level"))

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return fmt.Errorf("interface %s not found: %w", ifaceName, err)
	}

	registry := prometheus.NewRegistry()
	metrics := xdpmetrics.New(registry)

	metricsAddr := fmt.Sprintf(":%d", viper.GetUint16("metrics-port"))
	metricsSrv := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("addr", metricsAddr).Warn("metrics server stopped: " + err.Error())
		}
	}()
	defer metricsSrv.Close()

	umem, err := xdpumem.New(xdpctlMarker{name: ifaceName}, viper.GetUint32("chunk-size"), viper.GetUint32("headroom"), viper.GetUint32("num-chunks"))
	if err != nil {
		return fmt.Errorf("allocate UMEM: %w", err)
	}
	defer umem.Close()

	mapName := viper.GetString("bpf-map")
	numChunks := viper.GetUint32("num-chunks")

	var bpfMap xskmap.Map
	if viper.GetBool("attach") {
		loader := xdpprog.NewLoader()
		if err := loader.Load(objPath, map[string]uint32{mapName: numChunks}); err != nil {
			return fmt.Errorf("load bpf object: %w", err)
		}
		defer loader.Close()
		if err := loader.Attach(iface.Index, viper.GetString("bpf-prog")); err != nil {
			return fmt.Errorf("attach bpf program: %w", err)
		}
		defer loader.Detach(iface.Index)
		mapFD, err := loader.MapFD(mapName)
		if err != nil {
			return fmt.Errorf("find XSKMAP: %w", err)
		}
		bpfMap = xskmap.NewBPFMapFromFD(mapFD, numChunks)
	} else {
		opened, err := xskmap.OpenBPFMap(objPath, mapName)
		if err != nil {
			return fmt.Errorf("open XSKMAP: %w", err)
		}
		defer opened.Close()
		bpfMap = opened
	}

	storage := xskmap.NewStorage(bpfMap, uint32(iface.Index))

	queueID := viper.GetUint32("queue")
	rings, err := ringset.BuildAnchorRings(umem, storage, queueID, queueID, viper.GetUint32("ring-size"), viper.GetBool("zero-copy"), xskmap.Any)
	if err != nil {
		return fmt.Errorf("build ring set: %w", err)
	}
	defer rings.Close()

	log.LogBind(uint32(iface.Index), queueID, true, viper.GetBool("zero-copy"))

	for _, frame := range umem.Descriptors() {
		rings.Fill.Push(frame.Desc)
	}
	rings.Fill.Poke()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Info("shutting down")
			return nil
		case <-ticker.C:
			if rings.Fill.NeedsWakeup() {
				if err := rings.Fill.Poke(); err != nil {
					log.WithField("ring", "fill").Warn("poke failed: " + err.Error())
				} else {
					metrics.RecordWakeup(ifaceName, queueID, "fill")
				}
			}
			if rings.Tx.NeedsWakeup() {
				if err := rings.Tx.Poke(); err != nil {
					log.WithField("ring", "tx").Warn("poke failed: " + err.Error())
				} else {
					metrics.RecordWakeup(ifaceName, queueID, "tx")
				}
			}

			metrics.ObserveRing(ifaceName, queueID, "rx", rings.Rx.Filled(), rings.Rx.FreeEntries())
			metrics.ObserveRing(ifaceName, queueID, "tx", rings.Tx.Filled(), rings.Tx.FreeEntries())
			metrics.ObserveRing(ifaceName, queueID, "fill", rings.Fill.Filled(), rings.Fill.FreeEntries())
			metrics.ObserveRing(ifaceName, queueID, "completion", rings.Comp.Filled(), rings.Comp.FreeEntries())
			if st, err := rings.Rx.Stats(); err == nil {
				metrics.ObserveStatistics(ifaceName, queueID, st)
			}
		}
	}
}
