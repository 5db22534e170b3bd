package replctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replwire/replwire/pkg/termcaps"
)

func TestParseHello(t *testing.T) {
	msg, ok := Parse("@@repl:hello;terminal=xterm-256color;cols=120;rows=40;ansi=true")
	require.True(t, ok)
	assert.Equal(t, KindHello, msg.Kind)
	assert.Equal(t, "xterm-256color", msg.Terminal)
	require.NotNil(t, msg.Size)
	assert.Equal(t, termcaps.WindowSize{Cols: 120, Rows: 40}, *msg.Size)
	require.NotNil(t, msg.ANSI)
	assert.True(t, *msg.ANSI)
}

func TestParseResize(t *testing.T) {
	msg, ok := Parse("@@repl:resize;cols=80;rows=24")
	require.True(t, ok)
	assert.Equal(t, KindResize, msg.Kind)
	require.NotNil(t, msg.Size)
	assert.Equal(t, termcaps.WindowSize{Cols: 80, Rows: 24}, *msg.Size)
	assert.Empty(t, msg.Terminal)
	assert.Nil(t, msg.ANSI)
}

func TestParseNotControl(t *testing.T) {
	for _, line := range []string{
		"hello world",
		"repl:hello",
		"@@repl", // no colon, plain text
		"",
	} {
		assert.False(t, IsControl(line), line)
		_, ok := Parse(line)
		assert.False(t, ok, line)
	}
}

func TestParseFieldTolerance(t *testing.T) {
	t.Run("unknown keys ignored", func(t *testing.T) {
		msg, ok := Parse("@@repl:hello;terminal=vt100;flavor=strawberry;cols=80;rows=24")
		require.True(t, ok)
		assert.Equal(t, "vt100", msg.Terminal)
		require.NotNil(t, msg.Size)
	})

	t.Run("order independent", func(t *testing.T) {
		msg, ok := Parse("@@repl:hello;rows=24;ansi=false;cols=80")
		require.True(t, ok)
		require.NotNil(t, msg.Size)
		assert.Equal(t, termcaps.WindowSize{Cols: 80, Rows: 24}, *msg.Size)
		require.NotNil(t, msg.ANSI)
		assert.False(t, *msg.ANSI)
	})

	t.Run("malformed size drops field not message", func(t *testing.T) {
		msg, ok := Parse("@@repl:hello;terminal=vt100;cols=banana;rows=24")
		require.True(t, ok)
		assert.Nil(t, msg.Size)
		assert.Equal(t, "vt100", msg.Terminal)
	})

	t.Run("zero size dropped", func(t *testing.T) {
		msg, ok := Parse("@@repl:hello;cols=0;rows=24")
		require.True(t, ok)
		assert.Nil(t, msg.Size)
	})

	t.Run("resize requires both dimensions", func(t *testing.T) {
		_, ok := Parse("@@repl:resize;cols=80")
		assert.False(t, ok)
		_, ok = Parse("@@repl:resize;cols=80;rows=banana")
		assert.False(t, ok)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		_, ok := Parse("@@repl:goodbye;cols=80;rows=24")
		assert.False(t, ok)
	})

	t.Run("trailing newline tolerated", func(t *testing.T) {
		msg, ok := Parse("@@repl:resize;cols=80;rows=24\r\n")
		require.True(t, ok)
		require.NotNil(t, msg.Size)
	})
}

func TestParseCapabilities(t *testing.T) {
	msg, ok := Parse("@@repl:hello;caps=ANSI,resize-reporting,warp-core")
	require.True(t, ok)
	assert.True(t, msg.Caps.Has(termcaps.CapAnsi))
	assert.True(t, msg.Caps.Has(termcaps.CapResizeReporting))
	assert.False(t, msg.Caps.Has(termcaps.CapVTInput))
}

func TestEncodeRoundTrip(t *testing.T) {
	ansi := true
	original := Message{
		Kind:     KindHello,
		Terminal: "xterm-256color",
		Size:     &termcaps.WindowSize{Cols: 120, Rows: 40},
		ANSI:     &ansi,
		Caps:     termcaps.CapAnsi | termcaps.CapResizeReporting,
	}
	decoded, ok := Parse(original.Encode())
	require.True(t, ok)
	assert.Equal(t, original, decoded)

	resize := FormatResize(termcaps.WindowSize{Cols: 80, Rows: 24})
	assert.Equal(t, "@@repl:resize;cols=80;rows=24", resize)
}

func TestFormatHello(t *testing.T) {
	line := FormatHello("vt220", &termcaps.WindowSize{Cols: 132, Rows: 50}, false, termcaps.CapVTInput)
	msg, ok := Parse(line)
	require.True(t, ok)
	assert.Equal(t, "vt220", msg.Terminal)
	require.NotNil(t, msg.ANSI)
	assert.False(t, *msg.ANSI)
	assert.True(t, msg.Caps.Has(termcaps.CapVTInput))
}
