package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientnetwork "github.com/rinooks/pixel-war/pkg/client/network"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/messages"
)

// A headless client that joins a session and places random pixels.
// Useful for load testing and for demoing a busy canvas.
func main() {
	serverAddr := flag.String("server", "ws://localhost:8081", "WebSocket server address")
	sessionID := flag.String("session", "", "Session to join")
	playerName := flag.String("name", "bot", "Player name")
	teamID := flag.String("team", "", "Team to join (auto-assigned when empty)")
	color := flag.String("color", "#ff4444", "Pixel color")
	interval := flag.Duration("interval", 2*time.Second, "Placement interval")
	canvasSize := flag.Int("canvas", 64, "Canvas size for random placement")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel))

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "-session is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	client := clientnetwork.NewWSClient(*serverAddr)
	if err := client.Connect(); err != nil {
		panic(fmt.Sprintf("Failed to connect: %v", err))
	}
	defer client.Close()

	joined := make(chan struct{})
	go func() {
		err := client.HandleMessages(ctx, func(msg *messages.Message) {
			switch msg.Type {
			case messages.MessageTypeServerJoinAck:
				ack := &messages.ServerJoinAck{}
				if err := json.Unmarshal(msg.Payload, ack); err != nil {
					log.Error("Failed to unmarshal join ack: %v", err)
					return
				}
				log.Info("Joined session %s as player %s", ack.SessionID, ack.PlayerID)
				close(joined)
			case messages.MessageTypeServerJoinFailure:
				failure := &messages.ServerJoinFailure{}
				if err := json.Unmarshal(msg.Payload, failure); err == nil {
					log.Error("Join failed: %s", failure.Reason)
				}
				cancel()
			case messages.MessageTypeServerPlacementRejected:
				rejected := &messages.ServerPlacementRejected{}
				if err := json.Unmarshal(msg.Payload, rejected); err == nil {
					log.Warn("Placement at (%d,%d) rejected: %s", rejected.X, rejected.Y, rejected.Reason)
				}
			case messages.MessageTypeServerSessionSnapshot:
				snapshot := &messages.SessionSnapshot{}
				if err := json.Unmarshal(msg.Payload, snapshot); err == nil {
					log.Info("Snapshot: %d pixels, %d players", len(snapshot.Pixels), len(snapshot.Players))
				}
			case messages.MessageTypeServerGameEnded:
				log.Info("Game ended")
				cancel()
			default:
				log.Debug("Received %s", msg.Type)
			}
		})
		if err != nil {
			log.Error("Connection closed: %v", err)
		}
		cancel()
	}()

	if err := client.Send(messages.MessageTypeClientJoin, &messages.ClientJoin{
		SessionID:  *sessionID,
		PlayerName: *playerName,
		TeamID:     *teamID,
	}); err != nil {
		panic(fmt.Sprintf("Failed to send join: %v", err))
	}

	select {
	case <-joined:
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := client.Send(messages.MessageTypeClientPlacePixel, &messages.ClientPlacePixel{
				X:     rand.Intn(*canvasSize),
				Y:     rand.Intn(*canvasSize),
				Color: *color,
			})
			if err != nil {
				log.Error("Failed to place pixel: %v", err)
				return
			}
		}
	}
}
