package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"collab-backend/internal/client"
	"collab-backend/internal/protocol"

	"github.com/google/uuid"
)

var (
	addr = flag.String("addr", "localhost:8080", "server address")
	name = flag.String("name", "", "display name (prompted when empty)")
)

func main() {
	flag.Parse()

	username := *name
	if username == "" {
		username = promptUsername()
	}

	wsURL := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	httpURL := url.URL{Scheme: "http", Host: *addr}

	ch := client.NewChannel(wsURL.String())
	ch.OnError(func(err error) {
		log.Printf("❌ connection error: %v", err)
	})

	session := client.NewSession(uuid.New().String(), username, ch)
	session.SetRemover(client.NewUploader(httpURL.String()))
	session.Bind(ch)

	ch.On(protocol.KindChatMessage, printMessage)
	ch.On(protocol.KindRecentMessages, printHistory)
	ch.On(protocol.KindUserJoined, func(p protocol.Payload) {
		evt := p.(protocol.UserJoined)
		fmt.Printf("ℹ️  %s joined\n", evt.Name)
	})
	ch.On(protocol.KindUserLeft, func(p protocol.Payload) {
		evt := p.(protocol.UserLeft)
		fmt.Printf("ℹ️  %s left\n", evt.Name)
	})
	ch.On(protocol.KindError, func(p protocol.Payload) {
		evt := p.(protocol.ErrorEvent)
		log.Printf("⚠️ server: %s", evt.Message)
	})

	if err := ch.Connect(); err != nil {
		log.Fatalf("❌ connect %s: %v", wsURL.String(), err)
	}
	defer ch.Close()
	log.Printf("✅ connected to %s", wsURL.String())

	if err := session.Join(); err != nil {
		log.Fatalf("❌ join: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("🛑 interrupt, closing")
		ch.Close()
		os.Exit(0)
	}()

	fmt.Println("type a message, /upload <path>, /clear, or /quit")
	readInput(session)
}

func promptUsername() string {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Enter your username: ")
	scanner.Scan()
	return scanner.Text()
}

func readInput(session *client.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	uploader := client.NewUploader((&url.URL{Scheme: "http", Host: *addr}).String())

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/clear":
			if err := session.ClearCanvas(); err != nil {
				log.Printf("❌ clear: %v", err)
			}
		case strings.HasPrefix(line, "/upload "):
			sendFile(session, uploader, strings.TrimPrefix(line, "/upload "))
		default:
			if _, err := session.SendText(line); err != nil {
				log.Printf("❌ send: %v", err)
				return
			}
		}
	}
}

func sendFile(session *client.Session, uploader *client.Uploader, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("❌ read %s: %v", path, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := uploader.Upload(ctx, filepath.Base(path), "", data, session.UserName)
	if err != nil {
		log.Printf("❌ upload: %v", err)
		return
	}
	if _, err := session.SendFileMessage(result); err != nil {
		log.Printf("❌ send file message: %v", err)
		return
	}
	fmt.Printf("[Sent] %s (%d bytes)\n", result.OriginalName, result.Size)
}

func printMessage(p protocol.Payload) {
	msg := p.(protocol.ChatMessage)
	printOne(msg)
}

func printHistory(p protocol.Payload) {
	history := p.(protocol.RecentMessages)
	for _, msg := range history {
		printOne(msg)
	}
}

func printOne(msg protocol.ChatMessage) {
	stamp := time.UnixMilli(msg.Timestamp).Format("15:04:05")
	switch msg.Type {
	case protocol.MessageFile:
		fmt.Printf("[%s] %s sent a file: %s (%s)\n", stamp, msg.Sender, msg.FileName, msg.DownloadURL)
	case protocol.MessageSystem:
		fmt.Printf("[%s] %s\n", stamp, msg.Content)
	default:
		fmt.Printf("[%s] %s: %s\n", stamp, msg.Sender, msg.Content)
	}
}
