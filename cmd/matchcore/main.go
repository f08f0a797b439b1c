// Command matchcore runs the matching engine process, following the
// teacher's cmd/tradsys/main.go subcommand-dispatch shape (AppName/
// AppVersion constants, a bare os.Args[1] switch, a printUsage help
// screen) trimmed to the one subcommand this engine actually has.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/abdoElHodaky/auctioncore/internal/app"
	"github.com/abdoElHodaky/auctioncore/internal/facade"
	"github.com/abdoElHodaky/auctioncore/internal/sweep"
)

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	switch os.Args[1] {
	case "server":
		runServer()
	case "version":
		printVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "directory to load config.yaml from")
	var rest []string
	if len(os.Args) > 2 {
		rest = os.Args[2:]
	}
	fs.Parse(rest)

	fxApp := fx.New(
		fx.Supply(app.ConfigPath(*configPath)),
		app.Module,
		fx.Invoke(func(*facade.Engine, *sweep.Sweeper, *http.Server) {}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fxApp.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to start: %v\n", app.AppName, err)
		os.Exit(1)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to stop cleanly: %v\n", app.AppName, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("%s v%s\n", app.AppName, app.AppVersion)
	fmt.Printf("Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  server   - Run the matching engine (default)")
	fmt.Println("  version  - Show version information")
	fmt.Println("  help     - Show this help message")
}

func printVersion() {
	fmt.Printf("%s v%s\n", app.AppName, app.AppVersion)
}

