// Command replay plays a recorded sensor session to the follower over TCP,
// in place of the Bluetooth bridge.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/replay"
)

func main() {
	file := flag.String("file", "", "CSV recording with header "+`"t,acc,qw,qx,qy,qz,px,py,pz"`)
	listen := flag.String("listen", "127.0.0.1:65432", "Address the follower connects to")
	rate := flag.Float64("rate", 60, "Samples per second")
	loop := flag.Bool("loop", false, "Restart the recording when it ends")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := customlog.NewLogrusLoggerWithWriter(*level, os.Stdout)

	if *file == "" {
		logger.Fatalf("-file is required")
	}
	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("Failed to open recording: %v", err)
	}
	rows, err := replay.ReadCSV(f)
	f.Close()
	if err != nil {
		logger.Fatalf("Failed to read recording %s: %v", *file, err)
	}

	srv, err := replay.NewServer(rows, *rate, *loop, logger)
	if err != nil {
		logger.Fatalf("Invalid replay settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, *listen); err != nil {
		logger.Fatalf("Replay failed: %v", err)
	}
}
