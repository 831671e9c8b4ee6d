package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/bobergda/simple-gpt-shell/internal/config"
	"github.com/bobergda/simple-gpt-shell/internal/core"
	"github.com/bobergda/simple-gpt-shell/internal/history"
	"github.com/bobergda/simple-gpt-shell/internal/llm"
	"github.com/bobergda/simple-gpt-shell/internal/logging"
	"github.com/bobergda/simple-gpt-shell/internal/osinfo"
	"github.com/bobergda/simple-gpt-shell/internal/runner"
	"github.com/bobergda/simple-gpt-shell/internal/session"
	"github.com/bobergda/simple-gpt-shell/internal/styles"
	"github.com/bobergda/simple-gpt-shell/internal/tokens"
	"github.com/bobergda/simple-gpt-shell/internal/transcript"
)

var BUILD_VERSION = "dev"

var configPath = flag.String("config", "", "path to the config file")
var modelFlag = flag.String("model", "", "model identifier to use")
var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

const helpText = `gpt-shell - turn plain-language requests into shell commands

USAGE:
  gpt-shell [options]

Describe what you want to do and review the commands the model proposes
before anything runs. Inside the session: safe [on|off], tokens [on|off],
history, e (enter a command yourself), q (quit).

Set OPENAI_API_KEY in the environment. Optional configuration lives at
~/.config/gpt-shell/config.yaml.

OPTIONS:
`

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Print(helpText)
		flag.PrintDefaults()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR("gpt-shell: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = core.ConfigFile()
	}

	cfg, err := config.NewLoader(nil).Load(cfgPath)
	if err != nil {
		return err
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	logger, err := logging.NewAppLogger(cfg.LogLevel, core.LogFile())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("-------- new gpt-shell session --------",
		zap.String("version", BUILD_VERSION),
		zap.String("model", cfg.Model),
	)

	interactionLogPath := cfg.LogFile
	if interactionLogPath == "" {
		interactionLogPath = core.InteractLogFile()
	}
	events := logging.NewInteractionLogger(logging.InteractionLoggerOptions{
		Path:   interactionLogPath,
		Logger: logger,
	})
	defer events.Close()

	historyManager, err := history.NewManager(core.HistoryFile())
	if err != nil {
		logger.Warn("failed to open prompt history, continuing without it", zap.Error(err))
		historyManager = nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	info := osinfo.Detect()
	accountant := tokens.NewAccountantForModel(cfg.Model, logger)
	truncator := transcript.NewTruncator(accountant, logger)

	resolver := llm.New(llm.Options{
		Client:          client,
		Model:           cfg.Model,
		MaxOutputTokens: cfg.MaxOutputTokens,
		HistoryCeiling:  cfg.HistoryCeiling(),
		OutputCeiling:   cfg.OutputCeiling(),
		Truncator:       truncator,
		OSInfo:          info,
		Events:          events,
		Logger:          logger,
	})

	commandRunner := runner.New(cfg.CommandTimeout(), os.Stdout, os.Stdout, styles.STDERR, logger)
	prompter := session.NewTermPrompter(os.Stdin, os.Stdout)

	s := session.New(session.Options{
		Resolver:      resolver,
		Executor:      commandRunner,
		History:       historyStore(historyManager),
		Events:        events,
		Prompter:      prompter,
		Out:           os.Stdout,
		Logger:        logger,
		OSInfo:        info,
		SafeMode:      cfg.SafeMode,
		ShowTokens:    cfg.ShowTokenUsage,
		ContextTokens: cfg.ContextTokens,
		Interactive:   term.IsTerminal(int(os.Stdin.Fd())),
	})

	return s.Run(context.Background())
}

// historyStore keeps a nil manager from becoming a non-nil interface.
func historyStore(manager *history.Manager) session.HistoryStore {
	if manager == nil {
		return nil
	}
	return manager
}
