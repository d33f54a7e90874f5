package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tidewater/seabridge/internal/chains"
	"github.com/tidewater/seabridge/internal/config"
	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
	"github.com/tidewater/seabridge/internal/lifecycle"
	"github.com/tidewater/seabridge/internal/notify"
	"github.com/tidewater/seabridge/internal/opensea"
	"github.com/tidewater/seabridge/internal/seaport"
	"github.com/tidewater/seabridge/internal/wallet"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[cancel] ")

	chainFlag := flag.String("chain", "ethereum", "chain slug")
	contractFlag := flag.String("contract", "", "NFT contract address")
	tokenFlag := flag.String("token", "", "token id")
	hashFlag := flag.String("hash", "", "order hash to cancel")
	flag.Parse()

	fmt.Printf("Order Cancel Tool v%s\n", version)
	fmt.Println(strings.Repeat("-", 60))

	if *contractFlag == "" || *tokenFlag == "" || *hashFlag == "" {
		log.Fatal("usage: cancel -chain <slug> -contract <address> -token <id> -hash <order hash>")
	}

	chain, err := chains.Lookup(*chainFlag)
	if err != nil {
		log.Fatalf("invalid chain: %v", err)
	}

	cfg, err := config.LoadWithPrivateKey()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	w, err := wallet.NewWalletFromHex(cfg.PrivateKey)
	if err != nil {
		log.Fatalf("failed to create wallet: %v", err)
	}

	log.Printf("wallet: %s", w.AddressHex())
	log.Printf("order:  %s", *hashFlag)
	log.Printf("chain:  %s (%d)", chain.Slug, chain.ID)
	fmt.Println(strings.Repeat("-", 60))

	if !confirmAction() {
		log.Println("operation cancelled by user")
		os.Exit(0)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	log.Println("resolving and sending cancel transaction...")
	txHash, err := ctrl.Cancel(ctx, lifecycle.CancelRequest{
		Contract:  *contractFlag,
		TokenID:   *tokenFlag,
		OrderHash: *hashFlag,
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrPollExhausted) {
			log.Printf("cancel tx sent (%s) but the listing is still visible upstream", txHash.Hex())
			log.Fatal("the marketplace may lag behind the chain, check again shortly")
		}
		log.Fatalf("cancel failed: %v", err)
	}

	fmt.Println(strings.Repeat("-", 60))
	log.Printf("order cancelled on chain, tx: %s", txHash.Hex())
}

func confirmAction() bool {
	fmt.Println()
	fmt.Println("This sends an on-chain transaction that permanently invalidates")
	fmt.Println("the order. Gas will be spent even if the order already expired.")
	fmt.Println()
	fmt.Print("Do you want to proceed? (yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Printf("failed to read input: %v", err)
		return false
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "yes" || input == "y"
}
