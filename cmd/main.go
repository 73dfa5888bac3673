package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"oggpcm/pkg/av"
	"oggpcm/pkg/config"
	"oggpcm/pkg/logger"
	"oggpcm/pkg/metrics"
	"oggpcm/pkg/ogg"
	"oggpcm/pkg/ogg/pcm"
	"oggpcm/pkg/probe"
)

func main() {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: oggprobe [flags] file.ogg...")
		fs.PrintDefaults()
		os.Exit(2)
	}

	configPath, _ := fs.GetString("config")
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultPath(); err != nil {
			fmt.Fprintln(os.Stderr, "get abs config path:", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(configPath, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	codecs, err := ogg.NewRegistry(pcm.NewCodec(pcm.WithLogger(log)))
	if err != nil {
		log.Fatal("create codec registry", zap.Error(err))
	}

	prober, err := probe.New(
		probe.WithRegistry(codecs),
		probe.WithLogger(log),
		probe.WithMetrics(m),
		probe.WithVerifyCRC(cfg.Demux.VerifyCRC),
		probe.WithDropUnknown(cfg.Demux.DropUnknown),
		probe.WithFLVDir(cfg.FLV.OutDir),
	)
	if err != nil {
		log.Fatal("create prober", zap.Error(err))
	}

	failed := false
	for _, path := range fs.Args() {
		res, err := prober.ProbeFile(path)
		if err != nil {
			log.Error("probe", zap.String("input", path), zap.Error(err))
			failed = true
			continue
		}
		printResult(res)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
				log.Error("listen http metrics", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
	}

	if failed {
		log.Sync()
		os.Exit(1)
	}
}

func printResult(res *probe.Result) {
	fmt.Printf("%s: %d stream(s)\n", res.Name, len(res.Streams))
	for _, si := range res.Streams {
		fmt.Printf("  #%d serial=0x%08x codec=%s", si.Index, si.Serial, si.Codec)
		if si.Err != nil {
			fmt.Printf(" rejected: %v\n", si.Err)
			continue
		}
		if si.MediaType == av.MediaTypeUnknown {
			fmt.Printf(" packets=%d\n", si.Packets)
			continue
		}

		fmt.Printf(" %s %d Hz %d ch time_base=%s packets=%d bytes=%d duration=%s\n",
			si.CodecID, si.SampleRate, si.Channels, si.TimeBase, si.Packets, si.Bytes, si.Duration())
		for _, k := range si.Metadata.Keys() {
			fmt.Printf("    %s=%s\n", k, si.Metadata[k])
		}
		if si.FLVPath != "" {
			fmt.Printf("    flv: %s\n", si.FLVPath)
			if h := si.FLVHeader; h != nil {
				fmt.Printf("    flv audio: format=%d rate=%d size=%d channels=%d\n",
					h.SoundFormat(), h.SoundRate(), h.SoundSize(), h.SoundChannels())
			}
		}
	}
}
