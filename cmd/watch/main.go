package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidewater/seabridge/internal/config"
	"github.com/tidewater/seabridge/internal/notify"
	"github.com/tidewater/seabridge/internal/stream"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[watch] ")

	collectionsFlag := flag.String("collections", "", "comma-separated collection slugs")
	notifySales := flag.Bool("notify-sales", false, "forward sale events to telegram")
	flag.Parse()

	fmt.Printf("Collection Watcher v%s\n", version)
	fmt.Println(strings.Repeat("-", 60))

	if *collectionsFlag == "" {
		log.Fatal("usage: watch -collections <slug>[,<slug>...] [-notify-sales]")
	}
	slugs := strings.Split(*collectionsFlag, ",")
	for i := range slugs {
		slugs[i] = strings.TrimSpace(slugs[i])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	notifier, err := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID, nil)
	if err != nil {
		log.Fatalf("failed to create notifier: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := stream.NewClient(cfg.OpenSeaAPIKey, nil)
	defer client.Close()

	client.OnSample(func(s stream.Sample) {
		log.Printf("%-12s %s  %s at %d", s.Event, s.Collection, s.Point.Price.Display(), s.Point.Timestamp)
		if *notifySales && s.Event == stream.EventItemSold {
			text := fmt.Sprintf("Sale in %s: %s", s.Collection, s.Point.Price.Display())
			if err := notifier.Notify(ctx, text); err != nil {
				log.Printf("notification failed: %v", err)
			}
		}
	})

	if err := client.Connect(); err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	if err := client.Subscribe(slugs...); err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
	log.Printf("watching %d collection(s): %s", len(slugs), strings.Join(slugs, ", "))

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("stream failed: %v", err)
	}
	log.Println("stopped")
}
