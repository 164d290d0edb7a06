package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/hoodly/hoodly-go/internal/config"
	"github.com/hoodly/hoodly-go/internal/storage"
	"github.com/hoodly/hoodly-go/pkg/logger"
	"github.com/hoodly/hoodly-go/pkg/types"
	"github.com/hoodly/hoodly-go/sdk"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "login":
		return loginCommand(cfg, args[1:])
	case "logout":
		return storage.ClearCredentials(cfg.TokenFile)
	case "link":
		return linkCommand(cfg)
	case "groups":
		return groupsCommand(cfg)
	case "chat":
		return chatCommand(cfg, args[1:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	case "version", "--version", "-v":
		fmt.Println("hoodly-go v1.0.0")
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Println(`Usage: hoodly <command>

Commands:
  login <token>          Store a credential token
  logout                 Remove stored credentials
  link                   Show a QR code for linking the mobile app
  groups                 List chat groups
  chat --group <id>      Open a group chat
  chat --private <id>    Open a private chat`)
}

func loginCommand(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: hoodly login <token>")
	}
	client := sdk.NewClient(cfg)
	if err := client.SetCredentials("", args[0]); err != nil {
		return err
	}
	if err := client.SaveCredentials(); err != nil {
		return err
	}
	logger.Infof("Logged in as %s", client.UserID())
	return nil
}

// linkCommand renders a QR code the mobile app scans to adopt this device's
// server and session.
func linkCommand(cfg *config.Config) error {
	creds, err := storage.LoadCredentials(cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}
	data := fmt.Sprintf("hoodly://link?server=%s&user=%s", cfg.ServerURL, creds.UserID)
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		logger.Warnf("Failed to generate QR code: %v", err)
		fmt.Println(data)
		return nil
	}
	fmt.Println(qr.ToSmallString(false))
	return nil
}

func groupsCommand(cfg *config.Config) error {
	client := sdk.NewClient(cfg)
	if err := client.LoadCredentials(); err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}
	groups, err := client.ListGroups(context.Background())
	if err != nil {
		return err
	}
	for _, group := range groups {
		fmt.Printf("%-24s %s (%d members, %d unread)\n", group.ID, group.Name, group.MemberCount, group.UnreadCount)
	}
	return nil
}

// terminalListener renders SDK events as terminal lines.
type terminalListener struct{}

func (terminalListener) OnConnectionState(state string) {
	fmt.Printf("-- connection: %s\n", state)
}

func (terminalListener) OnConversationChanged(conversationID string, messages []types.Message) {
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	fmt.Printf("[%s] %s: %s (%s)\n", last.CreatedAt.Format("15:04"), last.SenderName, last.Content, last.Status)
}

func (terminalListener) OnTyping(conversationID string, indicator string) {
	if indicator != "" {
		fmt.Printf("-- %s\n", indicator)
	}
}

func (terminalListener) OnUnread(count int) {
	fmt.Printf("-- %d unread notifications\n", count)
}

func (terminalListener) OnError(message string) {
	fmt.Printf("-- error: %s\n", message)
}

func chatCommand(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("chat", flag.ContinueOnError)
	groupID := flags.String("group", "", "group id to open")
	privateID := flags.String("private", "", "private chat id to open")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if (*groupID == "") == (*privateID == "") {
		return fmt.Errorf("exactly one of --group or --private is required")
	}

	client := sdk.NewClient(cfg)
	if err := client.LoadCredentials(); err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}
	client.SetListener(terminalListener{})
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Disconnect()

	ctx := context.Background()
	if *groupID != "" {
		if err := client.OpenGroup(ctx, *groupID); err != nil {
			return err
		}
	} else {
		if err := client.OpenPrivateChat(ctx, *privateID); err != nil {
			return err
		}
	}

	fmt.Println("Connected. Type messages; /retry, /pause, /resume, /quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "/quit":
			return nil
		case line == "/pause":
			client.SetSyncEnabled(false)
		case line == "/resume":
			client.SetSyncEnabled(true)
		case line == "/retry":
			failed := client.FailedMessages()
			if len(failed) == 0 {
				fmt.Println("-- nothing to retry")
				continue
			}
			if err := client.RetryMessage(ctx, failed[len(failed)-1]); err != nil {
				fmt.Printf("-- retry failed: %v\n", err)
			}
		case strings.TrimSpace(line) == "":
			// Empty sends are a silent no-op, same as the composer.
		default:
			client.ComposerInput(line)
			if _, err := client.SendMessage(ctx, line); err != nil {
				fmt.Printf("-- send failed: %v\n", err)
			}
		}
	}
	return scanner.Err()
}
