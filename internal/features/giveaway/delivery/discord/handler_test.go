package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentDispatchTable(t *testing.T) {
	h := NewHandler(nil, nil, []string{"admin-1"})

	for _, id := range []string{
		ComponentEnter,
		ComponentConfirm,
		ComponentCancel,
		ComponentRoles,
		ComponentWinnerCount,
	} {
		assert.Contains(t, h.components, id)
	}
	assert.Len(t, h.components, 5, "every component tag has exactly one handler")
}

func TestCommands(t *testing.T) {
	commands := Commands()
	require.Len(t, commands, 2)

	byName := make(map[string]int)
	for _, command := range commands {
		byName[command.Name] = len(command.Options)
	}
	assert.Contains(t, byName, "giveaway")
	assert.Contains(t, byName, "timezone")

	subcommands := make(map[string]bool)
	for _, option := range commands[0].Options {
		subcommands[option.Name] = true
	}
	for _, name := range []string{"create", "end", "delete", "reroll", "list"} {
		assert.True(t, subcommands[name], "missing subcommand %q", name)
	}
}
