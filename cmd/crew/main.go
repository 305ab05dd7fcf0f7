package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ValentinKt/clean-up-crew/internal/client"
	"github.com/ValentinKt/clean-up-crew/internal/notify"
	"github.com/ValentinKt/clean-up-crew/internal/realtime"
	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/caarlos0/env/v11"
)

type clientConfig struct {
	ServerUrl string `env:"CREW_SERVER_URL" envDefault:"http://localhost:8000"`
	Email     string `env:"CREW_EMAIL,required"`
	Password  string `env:"CREW_PASSWORD,required"`
	EventId   string `env:"CREW_EVENT_ID"`
}

func main() {
	logger := log.New(os.Stderr, "[crew] ", log.LstdFlags)

	cfg, err := env.ParseAs[clientConfig]()
	if err != nil {
		logger.Fatal("config:", err)
	}

	ctx := context.Background()

	api, err := client.NewClient(cfg.ServerUrl, logger)
	if err != nil {
		logger.Fatal("client:", err)
	}

	viewer, err := api.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		logger.Fatal("login:", err)
	}
	fmt.Printf("logged in as %s\n", viewer.Name)

	feed, err := client.NewChangeFeed(ctx, api, logger)
	if err != nil {
		logger.Fatal("change feed:", err)
	}
	defer feed.Close()

	notifier := notify.NewCenter(logger)
	defer notifier.Close()
	notifier.OnChange(func(notifications []notify.Notification) {
		for _, n := range notifications {
			fmt.Printf("[%s] %s: %s\n", n.Severity, n.Title, n.Message)
		}
	})

	watcher := realtime.NewWatcher(logger, feed, notifier, viewer)
	defer watcher.Close()

	if cfg.EventId != "" {
		if err := watcher.Watch(ctx, cfg.EventId); err != nil {
			logger.Fatal("watch:", err)
		}
		fmt.Printf("watching event %s\n", cfg.EventId)
	}

	repl(ctx, api, watcher, logger)
}

func repl(ctx context.Context, api *client.Client, watcher *realtime.Watcher, logger *log.Logger) {
	fmt.Println("commands: watch <event>, events, show, join, leave, chat <msg>, claim <item>, unclaim <item>, provided <item>, status <status>, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		snap := watcher.Snapshot()

		var err error
		switch cmd {
		case "watch":
			err = watcher.Watch(ctx, arg)
		case "events":
			var events []types.Event
			if events, err = api.ListEventsForUser(ctx); err == nil {
				for _, evt := range events {
					fmt.Printf("%s\t%s\t%s\n", evt.Id, evt.Status, evt.Title)
				}
			}
		case "show":
			printEvent(snap)
		case "join":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.JoinEvent(ctx, evt.Id)
			})
		case "leave":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.LeaveEvent(ctx, evt.Id)
			})
		case "chat":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.PostChatMessage(ctx, evt.Id, arg)
			})
		case "claim":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.ClaimItem(ctx, evt, evt.Id, arg)
			})
		case "unclaim":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.UnclaimItem(ctx, evt.Id, arg)
			})
		case "provided":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.MarkItemProvided(ctx, evt.Id, arg, true)
			})
		case "status":
			err = requireWatched(snap, func(evt *types.Event) error {
				return api.UpdateEventStatus(ctx, evt.Id, types.EventStatus(arg))
			})
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", cmd)
		}

		if err != nil {
			logger.Println(err)
		}
	}
}

func requireWatched(snap *types.Event, fn func(*types.Event) error) error {
	if snap == nil {
		return fmt.Errorf("no event is being watched")
	}
	return fn(snap)
}

func printEvent(evt *types.Event) {
	if evt == nil {
		fmt.Println("no snapshot yet")
		return
	}

	fmt.Printf("%s (%s) at %s\n", evt.Title, evt.Status, evt.Location.Address)
	fmt.Printf("participants (%d):\n", len(evt.Participants))
	for _, p := range evt.Participants {
		fmt.Printf("  %s\n", p.Name)
	}
	fmt.Println("equipment:")
	for _, item := range evt.Equipment {
		marker := " "
		if item.IsProvided {
			marker = "x"
		}
		claimed := ""
		if item.ClaimedBy != "" {
			claimed = " (claimed by " + item.ClaimedBy + ")"
		}
		fmt.Printf("  [%s] %s %s%s\n", marker, item.Id, item.Name, claimed)
	}
	for _, m := range evt.Chat {
		fmt.Printf("  %s: %s\n", m.User.Name, m.Message)
	}
}
