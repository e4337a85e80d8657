package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"captureflag/pkg/config"
	"captureflag/pkg/game/types"
	"captureflag/pkg/geo"
	"captureflag/pkg/log"
	"captureflag/pkg/network"
	"captureflag/pkg/session"
)

const (
	walkInterval   = 500 * time.Millisecond
	walkStepMeters = 5.0
	walkEastMeters = 500.0
)

// consoleListener is a stand-in for the UI layer: it prints every session
// notification and signals when the game ends.
type consoleListener struct {
	once      sync.Once
	gameEnded chan struct{}
}

func newConsoleListener() *consoleListener {
	return &consoleListener{gameEnded: make(chan struct{})}
}

func (c *consoleListener) OnGameList(games []*types.Game) {
	log.Info("Open games: %d", len(games))
	for _, g := range games {
		log.Info("  %s (%s) with %d players", g.Name, g.ID, len(g.Players))
	}
}

func (c *consoleListener) OnJoined(game *types.Game, player *types.Player) {
	log.Info("Joined game %s as %s on team %s", game.ID, player.Name, player.Team)
}

func (c *consoleListener) OnPlayerUpdated(player *types.Player) {
	log.Info("Player %s at %.5f,%.5f", player.Name, player.Position.Latitude, player.Position.Longitude)
}

func (c *consoleListener) OnGameEnded(capturerName string, capturerTeam types.Team) {
	log.Info("Game over! Flag captured by %s (team %s)", capturerName, capturerTeam)
	c.once.Do(func() { close(c.gameEnded) })
}

func (c *consoleListener) OnGameLeft() {
	log.Info("Left game, markers cleared")
}

func (c *consoleListener) OnError(kind session.ErrorKind, detail string) {
	log.Error("Server error (%s): %s", kind, detail)
}

func (c *consoleListener) OnConnectionChanged(connected bool) {
	if connected {
		log.Info("Connected to server")
	} else {
		log.Warn("Not connected to server")
	}
}

func main() {
	logLevel := flag.String("log-level", "", "Log level override")
	offline := flag.Bool("offline", false, "Start in offline mode")
	joinID := flag.String("join", "", "Join an existing game by ID instead of creating one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	parsedLogLevel, err := log.ParseLogLevel(level)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetLevel(parsedLogLevel)

	var live network.Transport
	switch cfg.Transport {
	case config.TransportWebSocket:
		live = network.NewWSTransport()
	default:
		live = network.NewTCPTransport()
	}
	offlineTransport := network.NewOfflineTransport(cfg.CaptureRadiusMeters)

	sess := session.New(cfg.ServerHost, cfg.ServerPort, live, offlineTransport)
	listener := newConsoleListener()
	sess.Start()
	defer sess.Stop()
	sess.AttachListener(listener)

	if *offline {
		sess.SwitchMode(false)
	}

	if *joinID != "" {
		sess.JoinGame(*joinID, cfg.PlayerName)
	} else {
		sess.CreateGame(cfg.GameName, cfg.PlayerName)
	}

	// Simulated positioning source: walk east from a fixed start until the
	// game ends. In offline mode this runs straight through the synthesized
	// enemy flag.
	position := types.Coordinate{Latitude: 60.16985, Longitude: 24.93837}
	target := geo.Offset(position, 0, walkEastMeters)

	ticker := time.NewTicker(walkInterval)
	defer ticker.Stop()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-interrupt:
			log.Info("Interrupted")
			return
		case <-listener.gameEnded:
			sess.LeaveGame()
			return
		case <-ticker.C:
			sess.UpdatePosition(position.Latitude, position.Longitude)
			position = geo.MoveToward(position, target, walkStepMeters)
		}
	}
}
