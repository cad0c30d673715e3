// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"confab/internal/client"
	"confab/internal/config"
	systemprompt "confab/system_prompt"
)

func runREPL(logger zerolog.Logger, configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}
	for _, warning := range cfg.Validate() {
		logger.Warn().Str("field", warning.Field).Msg(warning.Message)
	}

	provider, err := client.ParseProvider(cfg.Provider)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse provider")
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt, err = systemprompt.Load()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load default system prompt")
		}
	}

	apiKey := cfg.APIKey
	if !hasCredential(cfg, provider) {
		apiKey, err = promptAPIKey(provider)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read API key")
		}
	}

	bot, err := client.New(provider, client.Config{
		APIKey:       apiKey,
		APIURL:       cfg.APIURL,
		Model:        cfg.Model,
		APIVersion:   cfg.APIVersion,
		SystemPrompt: systemPrompt,
		MaxHistory:   cfg.MaxHistory,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build client")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "❯ ",
		HistoryFile:     cfg.CommandHistoryFile,
		AutoComplete:    commandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize readline")
	}
	defer rl.Close()

	fmt.Println("Confab")
	fmt.Printf("Provider in use: %s\n", provider)
	fmt.Println("Type /help for commands, Ctrl+C or /quit to exit")
	fmt.Println()

	env := &commandEnv{bot: bot, cfg: cfg, logger: logger, debug: *debugMode}

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			logger.Debug().Msg("Readline interrupted")
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		logger.Info().Str("user_input", line).Msg("User input received")

		if strings.HasPrefix(line, "/") {
			if handleCommand(line, env) {
				break
			}
			continue
		}

		handleConversation(line, env)
	}

	logger.Info().Msg("Session ended")
}

func handleConversation(line string, env *commandEnv) {
	opts := &client.Options{
		Temperature: env.cfg.Temperature,
		MaxTokens:   env.cfg.MaxTokens,
	}

	reply, err := env.bot.Chat(context.Background(), line, opts)
	if err != nil {
		env.logger.Error().Err(err).Msg("Chat failed")
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Assistant: %s\n", reply)
}

// commandCompleter builds a readline completer from available commands
func commandCompleter() *readline.PrefixCompleter {
	commands := availableCommands()
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem("/" + cmd.Name)
	}
	return readline.NewPrefixCompleter(items...)
}
