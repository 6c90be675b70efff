package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/client"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/session"
	"github.com/vovakirdan/wirechat-client/internal/store/sqlite"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

type cliFlags struct {
	configPath  string
	serverURL   string
	socketURL   string
	sendMode    string
	logLevel    string
	archivePath string

	username string
	password string
	register bool
	roomID   int64
}

func main() {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "wirechat",
		Short:         "Terminal chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flags.serverURL, "server-url", "", "chat server base URL")
	root.PersistentFlags().StringVar(&flags.socketURL, "socket-url", "", "chat server websocket URL")
	root.PersistentFlags().StringVar(&flags.sendMode, "send-mode", "", "send transport: rest or publish")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.archivePath, "archive-path", "", "path to the transcript archive database")

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Join a room and chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), flags)
		},
	}
	chat.Flags().StringVar(&flags.username, "username", "", "account username")
	chat.Flags().StringVar(&flags.password, "password", "", "account password")
	chat.Flags().BoolVar(&flags.register, "register", false, "create the account instead of logging in")
	chat.Flags().Int64Var(&flags.roomID, "room", 1, "room id to join")

	history := &cobra.Command{
		Use:   "history",
		Short: "Print a room's archived transcript",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), flags)
		},
	}
	history.Flags().Int64Var(&flags.roomID, "room", 1, "room id to print")

	root.AddCommand(chat, history)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(flags *cliFlags) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info")
	cfg, path, err := config.Load(bootstrap, flags.configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.UpdateFrom(config.Config{
		ServerURL:   flags.serverURL,
		SocketURL:   flags.socketURL,
		SendMode:    config.SendMode(flags.sendMode),
		ArchivePath: flags.archivePath,
		LogLevel:    flags.logLevel,
	})

	return cfg, log.New(cfg.LogLevel), nil
}

func runChat(ctx context.Context, flags *cliFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if flags.username == "" || flags.password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	anon := api.New(cfg.ServerURL, "", cfg.RequestTimeout, logger)
	var token string
	if flags.register {
		token, err = anon.Register(ctx, flags.username, flags.password)
	} else {
		token, err = anon.Login(ctx, flags.username, flags.password)
	}
	if err != nil {
		return err
	}

	self, err := session.FromToken(token)
	if err != nil {
		return err
	}
	authed := anon.WithToken(token)

	roomInfo, err := authed.Room(ctx, flags.roomID)
	if err != nil {
		return err
	}
	room := session.Room{
		RoomID:             roomInfo.ChatroomID,
		Title:              roomInfo.Title,
		IsPrivate:          roomInfo.IsPrivate,
		CreatorID:          roomInfo.CreatorID,
		MaxMembers:         roomInfo.MaxMembers,
		CurrentMemberCount: roomInfo.CurrentMemberCount,
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	conn, err := ws.Dial(dialCtx, cfg.SocketURL, token, logger)
	cancel()
	if err != nil {
		return err
	}
	if err := conn.Subscribe(ctx, room.RoomID); err != nil {
		conn.Close()
		return err
	}

	archiveStore, err := sqlite.New(cfg.ArchivePath)
	if err != nil {
		conn.Close()
		return err
	}
	defer archiveStore.Close()

	sess, err := client.Open(ctx, client.Options{
		Session:    self,
		Room:       room,
		API:        authed,
		Conn:       conn,
		Strategy:   client.NewSendStrategy(cfg.SendMode, authed, conn),
		EchoWindow: cfg.EchoWindow,
		Archive:    app.NewTranscriptArchive(archiveStore),
		Logger:     logger,
	})
	if err != nil {
		conn.Close()
		return err
	}

	terminal := app.New(room, self, sess, os.Stdin, os.Stdout, logger)
	if err := terminal.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runHistory(ctx context.Context, flags *cliFlags) error {
	cfg, _, err := loadConfig(flags)
	if err != nil {
		return err
	}

	archiveStore, err := sqlite.New(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer archiveStore.Close()

	transcript, err := archiveStore.LoadTranscript(ctx, flags.roomID)
	if err != nil {
		return err
	}
	if len(transcript) == 0 {
		fmt.Printf("no archived transcript for room %d\n", flags.roomID)
		return nil
	}
	for _, m := range transcript {
		fmt.Printf("%s #%d %s: %s\n",
			m.UpdatedAt.Local().Format(time.DateTime), m.MessageID, m.AuthorName, m.Body)
	}
	return nil
}
