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
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"confab/internal/client"
	"confab/internal/config"
	"confab/internal/conversation"
	"confab/internal/ui"
)

// commandEnv carries the state slash commands operate on.
type commandEnv struct {
	bot    client.Client
	cfg    *config.Config
	logger zerolog.Logger
	debug  bool
}

type command struct {
	Name        string
	Description string
	Handler     func(args []string, env *commandEnv) bool
}

func availableCommands() []command {
	return []command{
		{"help", "Show available commands", cmdHelp},
		{"history", "Show the conversation transcript", cmdHistory},
		{"summary", "Show message counts by role", cmdSummary},
		{"tokens", "Show the estimated token footprint", cmdTokens},
		{"clear", "Clear the conversation (keeps the system prompt)", cmdClear},
		{"debug", "Toggle debug logging", cmdDebug},
		{"save", "Save the conversation: /save [file]", cmdSave},
		{"load", "Load a saved conversation: /load [file]", cmdLoad},
		{"quit", "Exit", cmdQuit},
	}
}

// handleCommand dispatches a slash command line. Returns true when the REPL
// should exit.
func handleCommand(line string, env *commandEnv) bool {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false
	}
	name, args := fields[0], fields[1:]

	for _, cmd := range availableCommands() {
		if cmd.Name == name {
			return cmd.Handler(args, env)
		}
	}

	fmt.Printf("Unknown command /%s, try /help\n", name)
	return false
}

func cmdHelp(_ []string, _ *commandEnv) bool {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, cmd := range availableCommands() {
		fmt.Fprintf(w, "/%s\t%s\n", cmd.Name, cmd.Description)
	}
	_ = w.Flush()
	return false
}

func cmdHistory(_ []string, env *commandEnv) bool {
	fmt.Println(ui.FormatTranscript(env.bot.History()))
	return false
}

func cmdSummary(_ []string, env *commandEnv) bool {
	fmt.Println(env.bot.Conversation().Summary())
	return false
}

func cmdTokens(_ []string, env *commandEnv) bool {
	// Heuristic count, not a tokenizer.
	fmt.Printf("~%d tokens\n", env.bot.Conversation().TokenEstimate())
	return false
}

func cmdClear(_ []string, env *commandEnv) bool {
	env.bot.Reset()
	fmt.Println("Conversation cleared")
	return false
}

func cmdDebug(_ []string, env *commandEnv) bool {
	env.debug = !env.debug
	if env.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		fmt.Println("Debug logging enabled")
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		fmt.Println("Debug logging disabled")
	}
	return false
}

// historyPath resolves the target for /save and /load: the explicit argument
// when given, otherwise the configured history_file.
func historyPath(args []string, env *commandEnv) (string, bool) {
	if len(args) > 1 {
		return "", false
	}
	path := env.cfg.HistoryFile
	if len(args) == 1 {
		path = args[0]
	}
	return path, path != ""
}

func cmdSave(args []string, env *commandEnv) bool {
	path, ok := historyPath(args, env)
	if !ok {
		fmt.Println("Usage: /save [file]")
		return false
	}
	if err := env.bot.Conversation().Save(path); err != nil {
		env.logger.Error().Err(err).Msg("Save failed")
		fmt.Printf("Error: %v\n", err)
		return false
	}
	fmt.Printf("Saved conversation to %s\n", path)
	return false
}

func cmdLoad(args []string, env *commandEnv) bool {
	path, ok := historyPath(args, env)
	if !ok {
		fmt.Println("Usage: /load [file]")
		return false
	}

	loaded, _, err := conversation.Load(path)
	if err != nil {
		env.logger.Error().Err(err).Msg("Load failed")
		fmt.Printf("Error: %v\n", err)
		return false
	}

	// Replay into the client's own conversation; the seeded system prompt
	// stays in place and the window re-trims as usual.
	conv := env.bot.Conversation()
	conv.Clear()
	for _, msg := range loaded.Messages() {
		if err := conv.AddMessage(msg.Role, msg.Content, msg.Metadata); err != nil {
			env.logger.Error().Err(err).Msg("Load replay failed")
			fmt.Printf("Error: %v\n", err)
			return false
		}
	}
	fmt.Printf("Loaded %d messages from %s\n", loaded.Len(), path)
	return false
}

func cmdQuit(_ []string, _ *commandEnv) bool {
	fmt.Println("Bye")
	return true
}
