package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"/deals", "deals", nil, true},
		{"  /Search sfo nrt business  ", "search", []string{"sfo", "nrt", "business"}, true},
		{"!portfolio", "portfolio", nil, true},
		{".paths united 70000", "paths", []string{"united", "70000"}, true},
		{"/deals@pointsmaxxer_bot", "deals", nil, true},
		{"/book@pointsmaxxer_bot 12", "book", []string{"12"}, true},
		{"/ deals", "deals", nil, true},
		{"/", "", nil, false},
		{"/@bot", "", nil, false},
		{"hello", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isCmd, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestHelpText_ListsCommands(t *testing.T) {
	for _, cmd := range []string{
		"/portfolio", "/paths", "/search", "/compare", "/deals", "/unicorns", "/drops",
		"/estimate", "/discover", "/book", "/subscribe", "/unsubscribe", "/login",
		"/setbalance", "/addprogram", "/removeprogram", "/scan",
	} {
		assert.True(t, strings.Contains(helpText, cmd), cmd)
	}
}
