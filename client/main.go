package main

import (
	"context"
	"fmt"
	"go_copy_bench/client/comms"
	"go_copy_bench/client/metrics"
	"go_copy_bench/client/strategy"
	"go_copy_bench/client/worker"
	"go_copy_bench/config"
	"go_copy_bench/constants"
	"go_copy_bench/logging"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"
)

func main() {
	args := argparse.NewParser("client", constants.Title)

	address := args.StringPositional(&argparse.Options{Help: "Target host address"})
	port := args.IntPositional(&argparse.Options{Help: "Target port", Default: constants.DEFAULT_PORT})
	payload := args.IntPositional(&argparse.Options{Help: "Payload size in bytes (at least " +
		strconv.Itoa(constants.NUM_FIELDS) + ")"})
	threads := args.IntPositional(&argparse.Options{Help: "Number of sender connections",
		Default: constants.DEFAULT_NUM_WORKERS})
	duration := args.IntPositional(&argparse.Options{Help: "Duration in seconds",
		Default: constants.DEFAULT_DURATION})

	tuning := args.String("c", "config", &argparse.Options{Required: false, Help: "YAML tuning file"})
	mode := args.Selector("s", "strategy", constants.Strategies, &argparse.Options{Required: false,
		Help: "Send path to benchmark"})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS (-1 keeps tuning value)",
		Default: -1})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	nodelay := args.Flag("n", "nodelay", &argparse.Options{Help: "Set TCP_NODELAY"})
	verbose := args.Flag("v", "verbose", &argparse.Options{Help: "Debug logging"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	bench, err := config.Load(*tuning)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	// Command line wins over the tuning file.
	if *address != "" {
		bench.Target.Address = *address
	}
	if *port > 0 {
		bench.Target.Port = *port
	}
	if *payload != 0 {
		bench.Run.PayloadSize = *payload
	}
	if *threads > 0 {
		bench.Run.Workers = *threads
	}
	if *duration > 0 {
		bench.Run.Duration = *duration
	}
	if *mode != "" {
		bench.Run.Strategy = *mode
	}
	if *dscp >= 0 {
		bench.Socket.DSCP = *dscp
	}
	bench.Socket.MPTCP = bench.Socket.MPTCP || *mptcp
	bench.Socket.NoDelay = bench.Socket.NoDelay || *nodelay

	// Malformed configuration aborts before any connection attempt.
	if err := bench.Validate(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	logger := logging.New(*verbose)
	defer logger.Sync()

	addr := net.JoinHostPort(bench.Target.Address, strconv.Itoa(bench.Target.Port))
	logger.Info("Starting benchmark",
		zap.String("strategy", bench.Run.Strategy),
		zap.String("server", addr),
		zap.Int("payload", bench.Run.PayloadSize),
		zap.Int("threads", bench.Run.Workers),
		zap.Int("duration", bench.Run.Duration))

	pool := &worker.Pool{
		Job: worker.Job{
			Address:     addr,
			PayloadSize: bench.Run.PayloadSize,
			Workers:     bench.Run.Workers,
			Duration:    time.Duration(bench.Run.Duration) * time.Second,
			Strategy:    bench.Run.Strategy,
			Comms: comms.Options{
				DSCP:    bench.Socket.DSCP,
				MPTCP:   bench.Socket.MPTCP,
				NoDelay: bench.Socket.NoDelay,
				Timeout: bench.Socket.DialTimeout,
			},
			Send: strategy.Options{
				DrainInterval:     bench.ZeroCopy.DrainInterval,
				FinalDrainTimeout: bench.ZeroCopy.FinalDrainTimeout,
				ExhaustedWait:     bench.ZeroCopy.ExhaustedWait,
			},
		},
		Logger: logger,
	}

	results, err := pool.Run(context.Background())
	if err != nil {
		logger.Error("Benchmark aborted", zap.Error(err))
		os.Exit(1)
	}

	report := metrics.Aggregate(bench.Run.Strategy, bench.Run.PayloadSize, results)
	logger.Info(report.Summary())
	fmt.Println(report.ResultLine())

	if report.Connected == 0 {
		os.Exit(2)
	}
}
