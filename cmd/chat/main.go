package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/animekg/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger/console"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "chat",
		Short: "Ask the anime knowledge graph questions from the terminal",
		RunE:  runChat,
	}
	question string
	debug    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&question, "question", "q", "", "Answer a single question and exit")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func runChat(cmd *cobra.Command, args []string) error {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug || util.GetEnvBool("DEBUG", false),
		Output: cmd.ErrOrStderr(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Build(ctx, bootstrap.LoadConfig(), false)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer stack.Close(context.Background())

	if question != "" {
		printResult(cmd.OutOrStdout(), stack.QA.Answer(ctx, question))
		return nil
	}
	return repl(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), stack.QA)
}
