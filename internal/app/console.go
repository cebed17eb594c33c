package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
)

const helpText = `commands:
  <text>                 send a message
  /typing, /stop         start or stop the typing indicator
  /react <id> <emoji>    react to a message
  /unreact <id> <emoji>  remove a reaction
  /read                  mark the room as read
  /online [user]         list online users or check one
  /join <room>           switch rooms
  /leave                 leave the room
  /reconnect             retry the connection
  /quit                  exit`

// command is one parsed input line. A line without a leading slash is a
// message with name "".
type command struct {
	name string
	args []string
	text string
}

func parseLine(line string) (command, bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return command{}, false
	}
	if !strings.HasPrefix(text, "/") {
		return command{text: text}, true
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return command{}, false
	}
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// printer serializes writes from the reader goroutine and the input loop.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

type chatSession struct {
	app *App
	out *printer

	mu   sync.Mutex
	self string
	room string
}

func (c *chatSession) active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *chatSession) setActive(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// Chat runs an interactive session in room. Lines read from in are sent as
// messages and slash commands drive everything else. The room is joined again
// on every transition to connected. Chat returns when in is exhausted, /quit
// is entered or ctx is done.
func (a *App) Chat(ctx context.Context, room string, in io.Reader, out io.Writer) error {
	if room == "" {
		return core.ErrEmptyRoom
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &chatSession{app: a, out: &printer{w: out}, room: room}
	for _, unsubscribe := range c.subscribe(ctx) {
		defer unsubscribe()
	}

	s, err := a.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.mu.Lock()
	c.self = s.UserID
	c.mu.Unlock()

	c.out.printf("Connected as %s in room %s\n", s.UserID, room)
	c.out.printf("Type messages and press Enter to send. /help lists commands.\n")

	err = c.writeLoop(ctx, in)

	p := a.provider
	if r := c.active(); r != "" && (p.Rooms().IsJoined(r) || p.Rooms().IsPending(r)) {
		_ = p.Rooms().Leave(ctx, r)
	}
	_ = p.SetSession(context.Background(), nil)
	return err
}

func (c *chatSession) subscribe(ctx context.Context) []func() {
	p := c.app.provider
	ch := p.Channel()

	return []func(){
		p.OnStatus(func(change core.StatusChange) {
			switch change.New {
			case core.StatusConnected:
				if room := c.active(); room != "" {
					if err := p.Rooms().Join(ctx, room); err != nil {
						c.out.printf("join %s: %v\n", room, err)
					}
				}
			case core.StatusDisconnected, core.StatusError:
				if change.Err != nil {
					c.out.printf("* %s: %v (/reconnect to retry)\n", change.New, change.Err)
				}
			}
		}),
		ch.OnNewMessage(func(m core.Message) {
			if m.ChatID != c.active() {
				return
			}
			c.out.printf("[%s] %s: %s\n", m.ChatID, displayName(m.Sender), m.Content)
		}),
		ch.OnUserTyping(func(t core.Typing) {
			if t.ChatID == c.active() && t.UserID != c.selfID() {
				c.out.printf("* %s is typing...\n", lo.CoalesceOrEmpty(t.Username, t.UserID))
			}
		}),
		ch.OnReactionAdded(func(r core.Reaction) {
			c.out.printf("* %s reacted %s to %s\n", r.UserID, r.Emoji, r.MessageID)
		}),
		ch.OnReactionRemoved(func(r core.Reaction) {
			c.out.printf("* %s removed %s from %s\n", r.UserID, r.Emoji, r.MessageID)
		}),
		ch.OnMessagesRead(func(r core.ReadReceipt) {
			if r.ChatID == c.active() && r.UserID != c.selfID() {
				c.out.printf("* %s read the room\n", r.UserID)
			}
		}),
		ch.OnNotification(func(n core.Notification) {
			c.out.printf("* new message in %s from %s: %s\n", n.ChatID, displayName(n.Sender), n.Preview)
		}),
		ch.OnError(func(e *core.ApplicationError) {
			c.out.printf("! %v\n", e)
		}),
	}
}

func (c *chatSession) selfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

func (c *chatSession) writeLoop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, ok := parseLine(line)
			if !ok {
				continue
			}
			if cmd.name == "quit" {
				return nil
			}
			if err := c.run(ctx, cmd); err != nil {
				if errors.Is(err, core.ErrNotConnected) {
					c.out.printf("! not connected, /reconnect to retry\n")
					continue
				}
				c.out.printf("! %v\n", err)
			}
		}
	}
}

func (c *chatSession) run(ctx context.Context, cmd command) error {
	p := c.app.provider
	ch := p.Channel()
	room := c.active()

	switch cmd.name {
	case "":
		return ch.SendMessage(ctx, room, cmd.text)
	case "typing":
		return ch.StartTyping(ctx, room)
	case "stop":
		return ch.StopTyping(ctx, room)
	case "react", "unreact":
		if len(cmd.args) != 2 {
			return fmt.Errorf("usage: /%s <message id> <emoji>", cmd.name)
		}
		if cmd.name == "react" {
			return ch.AddReaction(ctx, cmd.args[0], cmd.args[1])
		}
		return ch.RemoveReaction(ctx, cmd.args[0], cmd.args[1])
	case "read":
		return ch.MarkMessagesRead(ctx, room)
	case "online":
		if len(cmd.args) == 0 {
			c.out.printf("online: %s\n", strings.Join(p.Presence().Online(), ", "))
			return nil
		}
		state := "offline"
		if p.Presence().IsOnline(cmd.args[0]) {
			state = "online"
		}
		c.out.printf("%s is %s\n", cmd.args[0], state)
		return nil
	case "join":
		if len(cmd.args) != 1 {
			return errors.New("usage: /join <room>")
		}
		if room != "" && room != cmd.args[0] {
			_ = p.Rooms().Leave(ctx, room)
		}
		c.setActive(cmd.args[0])
		return p.Rooms().Join(ctx, cmd.args[0])
	case "leave":
		c.setActive("")
		return p.Rooms().Leave(ctx, room)
	case "reconnect":
		// the stored token may have been replaced or may have expired
		if _, err := c.app.Connect(ctx); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		return nil
	case "help":
		c.out.printf("%s\n", helpText)
		return nil
	default:
		return fmt.Errorf("unknown command /%s", cmd.name)
	}
}

func displayName(s core.Sender) string {
	return lo.CoalesceOrEmpty(s.Username, s.Name, s.ID)
}
