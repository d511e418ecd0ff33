// Command client is a small terminal chat client used for manual
// testing against a running server.
//
// Usage:
//
//	client -addr localhost:8080 -user alice
//
// Commands typed at the prompt:
//
//	/join <team-id>       join a team and make it the active group
//	/msg <user> <text>    send a private message
//	/who                  print the online roster
//	/quit                 exit
//
// Anything else is sent as a chat message to the active group.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

type outboundFrame struct {
	Action  string `json:"action"`
	User    string `json:"user,omitempty"`
	Group   string `json:"group,omitempty"`
	To      string `json:"to,omitempty"`
	Team    string `json:"team,omitempty"`
	Content string `json:"content,omitempty"`
}

type inboundFrame struct {
	Kind      string `json:"kind"`
	Group     string `json:"group,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Content   string `json:"content,omitempty"`
	Type      string `json:"type,omitempty"`
	Typing    bool   `json:"typing,omitempty"`
	Attempted int    `json:"attempted,omitempty"`
	Delivered int    `json:"delivered,omitempty"`
	Error     string `json:"error,omitempty"`
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	user := flag.String("user", "", "username to register as")
	flag.Parse()

	if *user == "" {
		color.Red.Println("missing -user")
		os.Exit(2)
	}
	if err := run(*addr, *user); err != nil {
		color.Red.Printf("client error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, user string) error {
	wsURL := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", wsURL.String(), err)
	}
	defer conn.Close()

	if err := send(conn, outboundFrame{Action: "register", User: user}); err != nil {
		return err
	}
	color.Green.Printf("Connected as %s\n", user)

	go readLoop(conn)

	group := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Gray.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return nil
		case line == "/who":
			printRoster(addr)
		case strings.HasPrefix(line, "/join "):
			team := strings.TrimSpace(strings.TrimPrefix(line, "/join "))
			if err := send(conn, outboundFrame{Action: "join", Team: team}); err != nil {
				return err
			}
			group = "team:" + team
			color.Cyan.Printf("Active group: %s\n", group)
		case strings.HasPrefix(line, "/msg "):
			rest := strings.TrimPrefix(line, "/msg ")
			parts := strings.SplitN(rest, " ", 2)
			if len(parts) != 2 {
				color.Yellow.Println("usage: /msg <user> <text>")
				continue
			}
			if err := send(conn, outboundFrame{Action: "private", To: parts[0], Content: parts[1]}); err != nil {
				return err
			}
		default:
			if group == "" {
				color.Yellow.Println("join a team first: /join <team-id>")
				continue
			}
			if err := send(conn, outboundFrame{Action: "send", Group: group, Content: line}); err != nil {
				return err
			}
		}
	}
}

func send(conn *websocket.Conn, frame outboundFrame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

func readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("\nconnection closed")
			os.Exit(1)
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		printFrame(frame)
	}
}

func printFrame(frame inboundFrame) {
	switch frame.Kind {
	case "message":
		switch frame.Type {
		case "SYSTEM", "JOIN", "LEAVE":
			color.Magenta.Printf("\n* %s\n", frame.Content)
		default:
			color.Cyan.Printf("\n[%s] %s: ", frame.Group, frame.Sender)
			fmt.Println(frame.Content)
		}
	case "typing":
		if frame.Typing {
			color.Gray.Printf("\n%s is typing...\n", frame.Sender)
		}
	case "ack":
		color.Green.Printf("\ndelivered %d/%d\n", frame.Delivered, frame.Attempted)
	case "error":
		color.Red.Printf("\nerror: %s\n", frame.Error)
	}
}

func printRoster(addr string) {
	resp, err := http.Get(fmt.Sprintf("http://%s/api/online", addr))
	if err != nil {
		color.Red.Printf("roster unavailable: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var payload struct {
		Online []string `json:"online"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		color.Red.Printf("malformed roster: %v\n", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User", "Status"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, u := range payload.Online {
		table.Append([]string{u, "online"})
	}
	table.Render()
}
