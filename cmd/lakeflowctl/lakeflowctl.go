package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/bootstrap"
	"github.com/freundallein/lakeflow/chassis/awssession"
	"github.com/freundallein/lakeflow/chassis/config"
	"github.com/freundallein/lakeflow/chassis/protocol"
	"github.com/freundallein/lakeflow/chassis/queue"
)

func stageCommand(use, short string, stage protocol.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *bootstrap.Runtime) error {
				return rt.Dispatcher.Dispatch(ctx, protocol.Command(stage))
			})
		},
	}
}

func dispatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <payload.json|->",
		Short: "Dispatch a raw trigger payload read from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			var err error
			if args[0] == "-" {
				payload, err = io.ReadAll(cmd.InOrStdin())
			} else {
				payload, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *bootstrap.Runtime) error {
				return rt.Dispatcher.DispatchPayload(ctx, payload)
			})
		},
	}
}

// enqueue sends a stage command to the trigger queue for the worker to pick up.
func enqueue(ctx context.Context, client queue.Client, value string) error {
	stage, ok := protocol.ParseStage(value)
	if !ok {
		return fmt.Errorf("unknown stage %q", value)
	}
	body, err := protocol.Command(stage).JSON()
	if err != nil {
		return err
	}
	if err := client.SendMessage(ctx, body); err != nil {
		return fmt.Errorf("enqueue %s: %w", stage, err)
	}
	log.WithFields(log.Fields{
		"event": "stage_enqueued",
		"stage": stage,
	}).Info(body)
	return nil
}

func enqueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <exportTable|runCrawler|report>",
		Short: "Send a stage command to the trigger queue instead of running it here",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := config.Read()
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			log.Init("lakeflowctl", appCfg.LogLevel)
			if appCfg.Worker.Queuesrc.URL == "" {
				return fmt.Errorf("trigger queue url is not configured")
			}
			sess, err := awssession.New(appCfg.AWS)
			if err != nil {
				return fmt.Errorf("aws session: %w", err)
			}
			client := queue.InitAWSQueue(sess, queue.Config{
				Name: appCfg.Worker.Queuesrc.Name,
				URL:  appCfg.Worker.Queuesrc.URL,
			})
			return enqueue(cmd.Context(), client, args[0])
		},
	}
}

func withRuntime(ctx context.Context, fn func(context.Context, *bootstrap.Runtime) error) error {
	appCfg, err := config.Read()
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	log.Init("lakeflowctl", appCfg.LogLevel)
	rt, err := bootstrap.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func main() {
	root := &cobra.Command{
		Use:           "lakeflowctl",
		Short:         "Run one lakeflow pipeline stage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		stageCommand("export", "Start a table export and record its crawl target", protocol.StageExport),
		stageCommand("crawl", "Point the crawler at the last export and start it", protocol.StageRunCrawler),
		stageCommand("report", "Run the report query and log its result", protocol.StageReport),
		dispatchCommand(),
		enqueueCommand(),
	)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "lakeflowctl:", err)
		os.Exit(1)
	}
}
