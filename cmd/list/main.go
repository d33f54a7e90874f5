package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidewater/seabridge/internal/chains"
	"github.com/tidewater/seabridge/internal/config"
	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
	"github.com/tidewater/seabridge/internal/lifecycle"
	"github.com/tidewater/seabridge/internal/money"
	"github.com/tidewater/seabridge/internal/notify"
	"github.com/tidewater/seabridge/internal/opensea"
	"github.com/tidewater/seabridge/internal/seaport"
	"github.com/tidewater/seabridge/internal/wallet"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[list] ")

	chainFlag := flag.String("chain", "ethereum", "chain slug")
	contractFlag := flag.String("contract", "", "NFT contract address")
	tokenFlag := flag.String("token", "", "token id")
	priceFlag := flag.String("price", "", "listing price in native units, e.g. 0.25")
	daysFlag := flag.Int("days", 7, "listing duration in days")
	flag.Parse()

	fmt.Printf("Listing Tool v%s\n", version)
	fmt.Println(strings.Repeat("-", 60))

	if *contractFlag == "" || *tokenFlag == "" || *priceFlag == "" {
		log.Fatal("usage: list -chain <slug> -contract <address> -token <id> -price <amount> [-days <n>]")
	}

	chain, err := chains.Lookup(*chainFlag)
	if err != nil {
		log.Fatalf("invalid chain: %v", err)
	}

	priceDec, err := decimal.NewFromString(*priceFlag)
	if err != nil {
		log.Fatalf("invalid price: %v", err)
	}
	price, err := money.FromDecimal(priceDec)
	if err != nil {
		log.Fatalf("invalid price: %v", err)
	}

	cfg, err := config.LoadWithPrivateKey()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	w, err := wallet.NewWalletFromHex(cfg.PrivateKey)
	if err != nil {
		log.Fatalf("failed to create wallet: %v", err)
	}

	log.Printf("wallet:   %s", w.AddressHex())
	log.Printf("listing:  %s #%s", *contractFlag, *tokenFlag)
	log.Printf("price:    %s %s for %d days", price.Display(), chain.Native, *daysFlag)
	log.Printf("fee:      %d bps to %s", cfg.FeeBps, cfg.FeeRecipient)
	fmt.Println(strings.Repeat("-", 60))

	backend, err := lifecycle.DialBackend(cfg.RPCURL(chain.Slug))
	if err != nil {
		log.Fatalf("failed to connect to RPC: %v", err)
	}
	defer backend.Close()

	counters, err := seaport.NewChainCounterSource(cfg.RPCURL(chain.Slug))
	if err != nil {
		log.Fatalf("failed to connect to RPC: %v", err)
	}
	defer counters.Close()

	notifier, err := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID, nil)
	if err != nil {
		log.Fatalf("failed to create notifier: %v", err)
	}

	client := opensea.NewClient(cfg.OpenSeaAPIKey).WithBaseURL(cfg.OpenSeaBaseURL)
	ctrl, err := lifecycle.NewController(lifecycle.Options{
		Chain:        chain,
		Backend:      backend,
		Wallet:       w,
		Service:      gateway.New(client),
		Resolver:     fulfill.New(client, cfg.EnableFulfillment, cfg.EnableTestTx),
		Counters:     counters,
		FeeBps:       cfg.FeeBps,
		FeeRecipient: cfg.FeeRecipient,
		Notifier:     notifier,
	})
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	receipt, err := ctrl.List(ctx, lifecycle.ListRequest{
		Contract:     *contractFlag,
		TokenID:      *tokenFlag,
		Price:        price,
		DurationDays: *daysFlag,
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotApproved) {
			log.Fatal("conduit not approved for this collection, run the approve tool first")
		}
		log.Fatalf("listing failed: %v", err)
	}

	fmt.Println(strings.Repeat("-", 60))
	log.Println("listing registered with the marketplace")
	if receipt.OrderHash != "" {
		log.Printf("order hash: %s", receipt.OrderHash)
	}
}
