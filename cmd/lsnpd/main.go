package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/zuraxy/lsnp-node/pkg/api"
	"github.com/zuraxy/lsnp-node/pkg/network"
	"github.com/zuraxy/lsnp-node/pkg/protocol"
)

var (
	name        = flag.String("name", "", "Peer name; the user id is name@ip (default: hostname)")
	port        = flag.Int("port", protocol.DefaultPort, "UDP port to listen on")
	broadcast   = flag.String("broadcast", "", "Comma-separated broadcast addresses")
	announce    = flag.Duration("announce", 300*time.Second, "Discovery announce interval")
	cleanup     = flag.Duration("cleanup", 1800*time.Second, "Stale peer cleanup interval")
	peerTimeout = flag.Duration("peer-timeout", 300*time.Second, "Evict peers not heard from for this long")
	avatarPath  = flag.String("avatar", "", "Image file broadcast with the profile")
	apiAddr     = flag.String("api", "", "HTTP console address, e.g. 127.0.0.1:8975 (empty: disabled)")
	verbose     = flag.Bool("verbose", false, "Log every pipeline decision")
)

func main() {
	flag.Parse()
	printBanner()

	cfg := network.DefaultConfig()
	if *name != "" {
		cfg.Name = *name
	} else if host, err := os.Hostname(); err == nil {
		cfg.Name = host
	}
	cfg.Port = *port
	if *broadcast != "" {
		cfg.BroadcastAddrs = strings.Split(*broadcast, ",")
	}
	cfg.AnnounceInterval = *announce
	cfg.CleanupInterval = *cleanup
	cfg.PeerTimeout = *peerTimeout
	cfg.Verbose = *verbose

	node, err := network.NewNode(cfg)
	if err != nil {
		log.Fatalf("Failed to bring up LSNP: %v", err)
	}

	if *avatarPath != "" {
		loadAvatar(node, *avatarPath)
	}

	if err := node.Start(); err != nil {
		log.Fatalf("Failed to start node: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if *apiAddr != "" {
		apiCfg := api.DefaultConfig()
		apiCfg.Addr = *apiAddr
		server := api.NewServer(node, apiCfg)
		go func() {
			if err := server.Start(ctx); err != nil {
				log.Printf("HTTP console: %v", err)
			}
		}()
	}

	// Ctrl+C and /quit share one teardown path
	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			cancel()
			node.Stop()
			log.Println("Goodbye! 👋")
		})
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		fmt.Println()
		shutdown()
		os.Exit(0)
	}()

	newConsole(node, os.Stdin, os.Stdout).run()
	shutdown()
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════════╗")
	fmt.Println("║              LSNP Node v1.0                       ║")
	fmt.Println("║     Local Social Networking Protocol over UDP     ║")
	fmt.Println("╚═══════════════════════════════════════════════════╝")
	fmt.Println()
}

func loadAvatar(node *network.Node, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read avatar: %v", err)
	}
	if err := node.SetAvatar(mimetype.Detect(data).String(), data); err != nil {
		log.Fatalf("Avatar rejected: %v", err)
	}
	log.Printf("✓ Avatar loaded from %s (%d bytes)", path, len(data))
}
