package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("!атака @враг")
	assert.True(t, ok)
	assert.Equal(t, "атака", cmd)
	assert.Equal(t, []string{"@враг"}, args)

	cmd, _, ok = p.ParseCommand(".профиль")
	assert.True(t, ok)
	assert.Equal(t, "профиль", cmd)

	cmd, args, ok = p.ParseCommand("/start")
	assert.True(t, ok)
	assert.Equal(t, "start", cmd)
	assert.Nil(t, args)

	// Регистр команды нормализуется
	cmd, _, ok = p.ParseCommand("!Премиум")
	assert.True(t, ok)
	assert.Equal(t, "премиум", cmd)
}

func TestParseCommand_NotACommand(t *testing.T) {
	p := NewCommandParser()

	_, _, ok := p.ParseCommand("обычное сообщение в чате")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("")
	assert.False(t, ok)

	// Префикс без команды
	_, _, ok = p.ParseCommand("!")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("   !   ")
	assert.False(t, ok)
}
