package main

import (
	"context"
	"fmt"
	"go_copy_bench/constants"
	"go_copy_bench/logging"
	server "go_copy_bench/server/controller"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"
)

func main() {
	args := argparse.NewParser("server", constants.Title)

	port := args.IntPositional(&argparse.Options{Help: "Listening port", Default: constants.DEFAULT_PORT})
	bind := args.String("l", "listen", &argparse.Options{Required: false, Help: "Listen on address",
		Default: "0.0.0.0"})
	capture := args.String("r", "capture", &argparse.Options{Required: false, Help: "Folder for per connection stream captures"})
	raw := args.Flag("u", "uncompressed", &argparse.Options{Help: "Store captures without LZ4 compression"})
	verify := args.Flag("V", "verify", &argparse.Options{Help: "Verify received payload pattern"})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	verbose := args.Flag("v", "verbose", &argparse.Options{Help: "Debug logging"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	if *port <= 0 || *port > 65535 {
		fmt.Println("Invalid port", *port)
		os.Exit(1)
	}

	logger := logging.New(*verbose)
	defer logger.Sync()

	// Cancellation token shared by the accept loop and every connection.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(server.Options{
		Verify:     *verify,
		CaptureDir: *capture,
		CaptureRaw: *raw,
		MPTCP:      *mptcp,
	}, logger)
	if err != nil {
		logger.Fatal("Server setup failed", zap.Error(err))
	}

	bindTo := net.JoinHostPort(*bind, strconv.Itoa(*port))

	if err := srv.ListenAndServe(ctx, bindTo); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
	logger.Info("Shut down")
}
