package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/confirm"
	"github.com/leeineian/logbot/home"
	"github.com/leeineian/logbot/sys"
)

// alertInterval bounds how often write failures reach the error channel.
const alertInterval = time.Minute

func main() {
	silent := flag.Bool("silent", false, "Disable all log output")
	skipReg := flag.Bool("skip-reg", false, "Skip command registration")
	saveLog := flag.Bool("log-file", false, "Mirror log output to a file")
	flag.Parse()

	// 1. Initialize Logger (handle flags)
	sys.InitLogger(*silent, *saveLog)
	defer sys.CloseLogger()

	// 2. Load configuration
	cfg, err := sys.LoadConfig()
	if err != nil {
		sys.LogFatal(sys.MsgConfigFailedToLoad, err)
	}
	if *silent {
		cfg.Silent = true
	}

	sys.LogInfo(sys.MsgBotStarting, sys.GetProjectName())

	// 3. Run bot (blocks until shutdown signal)
	if err := run(cfg, *skipReg); err != nil {
		sys.LogFatal(sys.MsgGenericError, err)
	}
}

func run(cfg *sys.Config, skipReg bool) error {
	// 1. Setup global context that responds to shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// SIGUSR1 dumps every goroutine, useful when a confirmation hangs
	sys.Go(func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGUSR1)
		for range sigChan {
			sys.LogInfo(sys.MsgSignalDumpParams)
			f, err := os.Create("goroutines.txt")
			if err != nil {
				sys.LogError(sys.MsgSignalDumpCreateFail, err)
				continue
			}
			buf := make([]byte, 1<<20)
			length := runtime.Stack(buf, true)
			_, _ = f.Write(buf[:length])
			_ = f.Close()
			sys.LogInfo(sys.MsgSignalDumpSuccess)
		}
	})

	// 2. Bot state
	sys.LogInfo(sys.MsgInitializing, filepath.Base(cfg.DatabasePath))
	store, err := sys.OpenStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf(sys.MsgDatabaseInitFail, err)
	}
	defer store.Close()

	// 3. Log tree and engine
	notifier := home.NewErrorNotifier(cfg.ErrorChannelID, alertInterval)
	arc, err := archive.New(cfg.LogRoot,
		archive.WithClock(archive.Clock{Local: cfg.LocalTime}),
		archive.WithReporter(notifier),
	)
	if err != nil {
		return err
	}
	svc := confirm.NewService(cfg.ConfirmTimeout)

	router := sys.NewRouter(ctx)
	home.Register(router, cfg, home.NewDispatcher(cfg, arc, svc), home.NewRecorder(cfg, arc), svc)

	// 4. Create disgo client with retries for network resilience
	var client *bot.Client
	for i := 1; i <= 5; i++ {
		client, err = sys.CreateClient(cfg, router)
		if err == nil {
			break
		}
		if i == 5 {
			return fmt.Errorf(sys.MsgBotClientCreateFail, i, err)
		}
		sys.LogWarn(sys.MsgBotClientRetry, i, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
	defer client.Close(context.Background())
	notifier.SetSender(client.Rest)

	// 5. Command Registration
	if !skipReg {
		if err := router.RegisterCommands(ctx, client, store, cfg.GuildID); err != nil {
			sys.LogError(sys.MsgBotRegisterFail, err)
		}
	} else {
		sys.LogInfo(sys.MsgBotSkipReg)
	}

	// 6. Connect to Gateway
	if err := client.OpenGateway(ctx); err != nil {
		return fmt.Errorf(sys.MsgBotGatewayFail, err)
	}

	<-ctx.Done()
	if !cfg.Silent {
		fmt.Println()
	}

	notifier.Wait()
	sys.LogInfo(sys.MsgBotShutdown, sys.GetProjectName())
	return nil
}
