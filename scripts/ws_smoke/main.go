package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/akarshrajput/evidark-v2-sub001/internal/auth"
	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
	evlog "github.com/akarshrajput/evidark-v2-sub001/internal/log"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects with a token, joins a room, sends one message and waits for
// the server to push it back.
func run() error {
	addr := flag.String("addr", "ws://localhost:5000/socket", "WebSocket address")
	token := flag.String("token", os.Getenv("EVIDARK_TOKEN"), "authentication token")
	room := flag.String("room", "", "chat id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *room == "" {
		return fmt.Errorf("-room is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session, err := auth.SessionFromToken(*token)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}

	logger := evlog.New(*level)
	p := core.NewProvider(ws.NewDialer(logger), *addr, logger)
	defer p.Close()

	echoed := make(chan core.Message, 1)
	p.Channel().OnNewMessage(func(m core.Message) {
		if m.ChatID == *room && m.Sender.ID == session.UserID && m.Content == *text {
			select {
			case echoed <- m:
			default:
			}
		}
	})
	rejected := make(chan *core.ApplicationError, 1)
	p.Channel().OnError(func(e *core.ApplicationError) {
		select {
		case rejected <- e:
		default:
		}
	})

	if err := p.SetSession(ctx, &session); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	fmt.Printf("Connected to %s as %s\n", *addr, session.UserID)

	if err := p.Rooms().Join(ctx, *room); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if err := waitJoined(ctx, p, *room); err != nil {
		return err
	}
	fmt.Printf("Joined %s\n", *room)

	if err := p.Channel().SendMessage(ctx, *room, *text); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	select {
	case m := <-echoed:
		fmt.Printf("Message: id=%s room=%s text=%q at=%s\n", m.ID, m.ChatID, m.Content, m.CreatedAt)
		return nil
	case e := <-rejected:
		return fmt.Errorf("server error: %w", e)
	case <-ctx.Done():
		return fmt.Errorf("waiting for message: %w", ctx.Err())
	}
}

func waitJoined(ctx context.Context, p *core.Provider, room string) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for !p.Rooms().IsJoined(room) {
		if !p.Rooms().IsPending(room) {
			return fmt.Errorf("join %s was rejected", room)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for join: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
