// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the skirmish combat engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/skirmish/session"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Session   *session.Session
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given session.
func New(s *session.Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run starts the game loop. It shows the intro and the actor's status,
// then loops: prompt → input → dispatch → output.
func (c *CLI) Run(ctx context.Context) {
	game := c.Session.Engine.Catalog.Game
	if game.Intro != "" {
		c.printLine(game.Intro)
		c.printLine("")
	}
	c.printResult(c.Session.Step(ctx, "status"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Session.Step(ctx, input)
		c.printResult(result)

		if c.Trace {
			for _, line := range result.Trace {
				c.printSystem(line)
			}
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		for _, line := range c.Session.Save(arg) {
			c.printSystem(line)
		}

	case "/load":
		lines := c.Session.Load(ctx, arg)
		if len(lines) > 0 {
			c.printSystem(lines[0])
			for _, line := range lines[1:] {
				c.printLine(line)
			}
		}

	case "/help":
		for _, line := range HelpLines() {
			c.printLine(line)
		}

	case "/state":
		for _, line := range c.Session.State(ctx) {
			c.printSystem(line)
		}

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

// HelpLines returns the command reference shown by /help.
func HelpLines() []string {
	return []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle debug trace output",
		"",
		"Battle commands:",
		"  encounter [opponent] (hunt, e)  Look for a fight",
		"  attack (a, hit)                 Strike the opponent",
		"  skill (s, cast)                 Spend MP on a stronger strike",
		"  flee (f, run away)              Try to escape",
		"  wait (z, end turn)              Let the opponent act",
		"  status (l, look)                Show the battle",
		"  history [n] (h)                 List finished battles",
		"  inventory (i)                   Check what you're carrying",
		"  sweep                           Resolve stale battles",
		"  again (g)                       Repeat your last command",
	}
}

func (c *CLI) printResult(result session.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
