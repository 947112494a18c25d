package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"CardWar/internal/client"
	"CardWar/internal/utils"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"
)

const usage = `usage:
  war-client client  HOST PORT
  war-client clients HOST PORT N [--limit L]`

func main() {
	fs := pflag.NewFlagSet("war-client", pflag.ContinueOnError)
	limit := fs.Int("limit", client.DefaultLimit, "max simultaneously active sessions")
	level := fs.String("log-level", "info", "log level")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := utils.Init(*level); err != nil {
		utils.Log.Fatal("bad log level", "level", *level, "err", err)
	}

	args := fs.Args()
	if len(args) < 3 {
		fs.Usage()
		os.Exit(2)
	}
	addr := net.JoinHostPort(args[1], args[2])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "client":
		outcome, err := client.Play(ctx, addr)
		if err != nil {
			pterm.Error.Printfln("game failed: %v", err)
			os.Exit(1)
		}
		pterm.Success.Printfln("Game complete, I %s", outcome)

	case "clients":
		if len(args) < 4 {
			fs.Usage()
			os.Exit(2)
		}
		n, err := strconv.Atoi(args[3])
		if err != nil || n <= 0 {
			pterm.Error.Printfln("bad client count %q", args[3])
			os.Exit(2)
		}
		rep, err := client.RunLoad(ctx, addr, n, *limit)
		if err != nil {
			pterm.Warning.Printfln("stopped early: %v", err)
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
			{"requested", "completed", "failed", "won", "lost", "drew", "elapsed"},
			{
				strconv.Itoa(rep.Requested),
				strconv.Itoa(rep.Completed),
				strconv.Itoa(rep.Failed),
				strconv.Itoa(rep.Won),
				strconv.Itoa(rep.Lost),
				strconv.Itoa(rep.Drew),
				rep.Elapsed.Round(time.Millisecond).String(),
			},
		}).Render()
		utils.Log.Info("load test done", "completed", rep.Completed)

	default:
		fs.Usage()
		os.Exit(2)
	}
}
