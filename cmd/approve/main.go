package main

import (
	"bufio"
	"context"
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
	"github.com/tidewater/seabridge/internal/opensea"
	"github.com/tidewater/seabridge/internal/seaport"
	"github.com/tidewater/seabridge/internal/wallet"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[approve] ")

	chainFlag := flag.String("chain", "ethereum", "chain slug")
	contractFlag := flag.String("contract", "", "NFT contract address")
	flag.Parse()

	fmt.Printf("Conduit Approval Tool v%s\n", version)
	fmt.Println(strings.Repeat("-", 60))

	if *contractFlag == "" {
		log.Fatal("usage: approve -chain <slug> -contract <address>")
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

	log.Printf("wallet:   %s", w.AddressHex())
	log.Printf("contract: %s", *contractFlag)
	log.Printf("operator: %s (settlement conduit)", seaport.ConduitAddress.Hex())
	log.Printf("chain:    %s (%d)", chain.Slug, chain.ID)
	fmt.Println(strings.Repeat("-", 60))

	ctrl, backendClose, err := buildController(cfg, chain, w)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer backendClose()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	approved, err := ctrl.CheckApproval(ctx, *contractFlag)
	if err != nil {
		log.Fatalf("failed to check approval: %v", err)
	}
	if approved {
		log.Println("conduit already approved, nothing to do")
		return
	}

	if !confirmAction() {
		log.Println("operation cancelled by user")
		os.Exit(0)
	}

	log.Println("sending approval transaction...")
	status, err := ctrl.EnsureApproval(ctx, *contractFlag)
	if err != nil {
		log.Fatalf("approval failed: %v", err)
	}

	log.Printf("approval confirmed, tx: %s", status.TxHash.Hex())
	log.Println("the collection can now be listed")
}

func buildController(cfg *config.Config, chain chains.Chain, w *wallet.Wallet) (*lifecycle.Controller, func(), error) {
	backend, err := lifecycle.DialBackend(cfg.RPCURL(chain.Slug))
	if err != nil {
		return nil, nil, err
	}

	counters, err := seaport.NewChainCounterSource(cfg.RPCURL(chain.Slug))
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	client := opensea.NewClient(cfg.OpenSeaAPIKey).WithBaseURL(cfg.OpenSeaBaseURL)
	svc := gateway.New(client)
	resolver := fulfill.New(client, cfg.EnableFulfillment, cfg.EnableTestTx)

	ctrl, err := lifecycle.NewController(lifecycle.Options{
		Chain:        chain,
		Backend:      backend,
		Wallet:       w,
		Service:      svc,
		Resolver:     resolver,
		Counters:     counters,
		FeeBps:       cfg.FeeBps,
		FeeRecipient: cfg.FeeRecipient,
	})
	if err != nil {
		backend.Close()
		counters.Close()
		return nil, nil, err
	}

	cleanup := func() {
		backend.Close()
		counters.Close()
	}
	return ctrl, cleanup, nil
}

func confirmAction() bool {
	fmt.Println()
	fmt.Println("This grants the marketplace conduit transfer rights over every")
	fmt.Println("token you hold in this collection. Required once before listing.")
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
