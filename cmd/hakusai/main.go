// Command hakusai runs the conversational agent either as an HTTP service
// (serve) or as a one-shot terminal chat (chat).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	hakusai "github.com/modemneko/HakusAI"
	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/model"
	"github.com/modemneko/HakusAI/model/anthropic"
	"github.com/modemneko/HakusAI/model/openai"
	"github.com/modemneko/HakusAI/search"
	"github.com/modemneko/HakusAI/server"
)

var version = "dev"

func main() {
	if err := run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "hakusai",
		Usage:   "HakusAI conversational agent with long-term memory",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "reasoning service provider (openai or anthropic)",
				Value:   "openai",
				Sources: cli.EnvVars("HAKUSAI_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "model identifier override",
				Sources: cli.EnvVars("HAKUSAI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("HAKUSAI_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format (json or text)",
				Value:   "json",
				Sources: cli.EnvVars("HAKUSAI_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "search-api-key",
				Usage:   "Google Custom Search API key",
				Sources: cli.EnvVars("HAKUSAI_SEARCH_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "search-cse-id",
				Usage:   "Google Custom Search engine id",
				Sources: cli.EnvVars("HAKUSAI_SEARCH_CSE_ID"),
			},
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdChat(),
		},
	}

	return app.Run(ctx, args)
}

func cmdServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP chat API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address",
				Value:   ":8950",
				Sources: cli.EnvVars("HAKUSAI_ADDR"),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := buildLogger(c)
			ai, err := buildAgent(c, logger)
			if err != nil {
				return err
			}

			srv := server.New(ai.Runner(), func(o *server.Options) { o.Logger = logger })
			addr := c.String("addr")
			logger.Info("hakusai.serve.start", "addr", addr)
			return http.ListenAndServe(addr, srv.Handler())
		},
	}
}

func cmdChat() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "send a single message and print the response",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "uid",
				Usage: "session identifier",
				Value: "local",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("message argument required")
			}

			logger := buildLogger(c)
			ai, err := buildAgent(c, logger)
			if err != nil {
				return err
			}

			response, err := ai.Chat(ctx, c.String("uid"), c.Args().First())
			if err != nil {
				return err
			}
			fmt.Println(response)
			return nil
		},
	}
}

func buildLogger(c *cli.Command) logging.Logger {
	return logging.New(&logging.Config{
		Level:  logging.ParseLevel(c.String("log-level")),
		Format: c.String("log-format"),
		Output: os.Stderr,
	})
}

func buildAgent(c *cli.Command, logger logging.Logger) (*hakusai.HakusAI, error) {
	completer, err := buildCompleter(c)
	if err != nil {
		return nil, err
	}

	var searcher core.WebSearcher
	if key, cse := c.String("search-api-key"), c.String("search-cse-id"); key != "" && cse != "" {
		searcher = search.NewGoogleSearcher(key, cse)
	}

	return hakusai.New(completer, func(o *hakusai.Options) {
		o.Searcher = searcher
		o.Logger = logger
	}), nil
}

func buildCompleter(c *cli.Command) (model.Completer, error) {
	modelID := c.String("model")
	switch c.String("provider") {
	case "openai":
		return openai.NewCompleter(func(o *openai.Options) {
			if modelID != "" {
				o.Model = modelID
			}
		}), nil
	case "anthropic":
		var optFns []func(o *anthropic.Options)
		if modelID != "" {
			optFns = append(optFns, anthropic.WithModel(modelID))
		}
		return anthropic.NewCompleter(optFns...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.String("provider"))
	}
}
