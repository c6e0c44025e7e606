package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zuraxy/lsnp-node/pkg/network"
)

// console is the interactive stdin surface. Command handling lives in
// runLine so tests can drive it without a terminal.
type console struct {
	node *network.Node
	in   io.Reader
	out  io.Writer
}

func newConsole(node *network.Node, in io.Reader, out io.Writer) *console {
	return &console{node: node, in: in, out: out}
}

func (c *console) run() {
	fmt.Fprintf(c.out, "You are %s. Type /help for commands.\n", c.node.Identity().UserID())

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return
		}
		if c.runLine(strings.TrimSpace(scanner.Text())) {
			return
		}
	}
}

// runLine executes one console line and reports whether to quit.
func (c *console) runLine(line string) bool {
	if line == "" {
		return false
	}
	// Bare text is never broadcast by accident
	if !strings.HasPrefix(line, "/") {
		fmt.Fprintf(c.out, "Not a command: %q. Try /help, or /post to publish something.\n", line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		c.printHelp()
	case "/quit", "/exit":
		return true
	case "/peers":
		c.cmdPeers()
	case "/post":
		c.cmdPost(line)
	case "/dm":
		c.cmdDM(line)
	case "/follow":
		c.cmdFollow(args, true)
	case "/unfollow":
		c.cmdFollow(args, false)
	case "/like":
		c.cmdLike(args)
	case "/group":
		c.cmdGroup(line, args)
	case "/sendfile":
		c.cmdSendFile(args)
	case "/accept":
		c.cmdAccept(args)
	case "/ttt":
		c.cmdTicTacToe(args)
	case "/profile":
		c.cmdProfile(line)
	case "/revoke":
		c.cmdRevoke(args)
	case "/stats":
		c.cmdStats()
	case "/verbose":
		on := !c.node.Verbose()
		c.node.SetVerbose(on)
		fmt.Fprintf(c.out, "verbose %s\n", onOff(on))
	default:
		fmt.Fprintf(c.out, "Unknown command %s. Try /help\n", cmd)
	}
	return false
}

func (c *console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  /peers                                 known peers
  /post <text>                           broadcast a post
  /dm <user> <text>                      direct message
  /follow <user>   /unfollow <user>      manage the follow graph
  /like <author> <post-timestamp> [unlike]
  /group create <id> <name> <a,b,c>      create a group
  /group update <id> add=a,b remove=c    change the roster (creator only)
  /group msg <id> <text>                 message a group
  /group list                            your groups
  /sendfile <user> <path> [fec] [description]
  /accept <file-id>                      accept a pending file offer
  /ttt invite <user>                     start Tic-Tac-Toe as X
  /ttt move <game-id> <0-8>              play a position
  /ttt list                              your games
  /profile <display-name> <status>       update and announce the profile
  /revoke <token>                        revoke a token LAN-wide
  /stats                                 node counters
  /verbose                               toggle chatty logging
  /quit
`)
}

func (c *console) cmdPeers() {
	records := c.node.Directory().List()
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No peers yet. They appear as their beacons arrive.")
		return
	}
	for _, r := range records {
		marks := ""
		if c.node.Directory().IsFollowing(r.UserID) {
			marks += " [following]"
		}
		if c.node.Directory().HasFollower(r.UserID) {
			marks += " [follows you]"
		}
		name := ""
		if r.DisplayName != "" {
			name = fmt.Sprintf(" (%s)", r.DisplayName)
		}
		fmt.Fprintf(c.out, "  %s%s  %s:%d  seen %s ago%s\n",
			r.UserID, name, r.IP, r.Port,
			time.Since(r.LastSeen).Round(time.Second), marks)
	}
}

func (c *console) cmdPost(line string) {
	content := strings.TrimSpace(strings.TrimPrefix(line, "/post"))
	if content == "" {
		fmt.Fprintln(c.out, "Usage: /post <text>")
		return
	}
	if err := c.node.SendPost(content, 0); err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Post broadcast to the LAN.")
}

func (c *console) cmdDM(line string) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		fmt.Fprintln(c.out, "Usage: /dm <user> <text>")
		return
	}
	if err := c.node.SendDM(parts[1], parts[2]); err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "DM sent to %s.\n", parts[1])
}

func (c *console) cmdFollow(args []string, follow bool) {
	verb := "follow"
	if !follow {
		verb = "unfollow"
	}
	if len(args) != 1 {
		fmt.Fprintf(c.out, "Usage: /%s <user>\n", verb)
		return
	}

	var err error
	if follow {
		err = c.node.Follow(args[0])
	} else {
		err = c.node.Unfollow(args[0])
	}
	if err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "You now %s %s.\n", verb, args[0])
}

func (c *console) cmdLike(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /like <author> <post-timestamp> [unlike]")
		return
	}
	ts, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️ bad timestamp %q\n", args[1])
		return
	}
	unlike := len(args) > 2 && args[2] == "unlike"
	if err := c.node.SendLike(args[0], ts, unlike); err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	if unlike {
		fmt.Fprintln(c.out, "Unlike sent.")
	} else {
		fmt.Fprintln(c.out, "Like sent.")
	}
}

func (c *console) cmdGroup(line string, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: /group create|update|msg|list ...")
		return
	}

	switch args[0] {
	case "create":
		if len(args) < 4 {
			fmt.Fprintln(c.out, "Usage: /group create <id> <name> <member,member>")
			return
		}
		members := splitComma(args[3])
		if err := c.node.CreateGroup(args[1], args[2], members); err != nil {
			fmt.Fprintf(c.out, "⚠️ %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Group %s created with %d members.\n", args[1], len(members)+1)

	case "update":
		if len(args) < 3 {
			fmt.Fprintln(c.out, "Usage: /group update <id> add=a,b remove=c")
			return
		}
		var add, remove []string
		for _, a := range args[2:] {
			if v, ok := strings.CutPrefix(a, "add="); ok {
				add = append(add, splitComma(v)...)
			} else if v, ok := strings.CutPrefix(a, "remove="); ok {
				remove = append(remove, splitComma(v)...)
			}
		}
		if err := c.node.UpdateGroup(args[1], add, remove); err != nil {
			fmt.Fprintf(c.out, "⚠️ %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Group %s updated.\n", args[1])

	case "msg":
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			fmt.Fprintln(c.out, "Usage: /group msg <id> <text>")
			return
		}
		if err := c.node.SendGroupMessage(parts[2], parts[3]); err != nil {
			fmt.Fprintf(c.out, "⚠️ %v\n", err)
			return
		}
		fmt.Fprintln(c.out, "Group message sent.")

	case "list":
		groups := c.node.Groups().List()
		if len(groups) == 0 {
			fmt.Fprintln(c.out, "No groups.")
			return
		}
		for _, g := range groups {
			fmt.Fprintf(c.out, "  %s %q by %s, %d members, %d messages\n",
				g.ID, g.Name, g.Creator, len(g.Members), len(g.Messages))
		}

	default:
		fmt.Fprintf(c.out, "Unknown group action %q.\n", args[0])
	}
}

func (c *console) cmdSendFile(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /sendfile <user> <path> [fec] [description]")
		return
	}
	to, path := args[0], args[1]

	fec := false
	rest := args[2:]
	if len(rest) > 0 && rest[0] == "fec" {
		fec = true
		rest = rest[1:]
	}
	description := strings.Join(rest, " ")

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fileID, err := c.node.OfferFile(to, filepath.Base(path), data, description, fec)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Offered %s to %s as %s.\n", filepath.Base(path), to, fileID)
}

func (c *console) cmdAccept(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: /accept <file-id>")
		return
	}
	if err := c.node.AcceptFile(args[0]); err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Accepted %s. Assembly runs as chunks arrive.\n", args[0])
}

func (c *console) cmdTicTacToe(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: /ttt invite <user> | /ttt move <game-id> <0-8> | /ttt list")
		return
	}

	switch args[0] {
	case "invite":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "Usage: /ttt invite <user>")
			return
		}
		g, err := c.node.InviteGame(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "⚠️ %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Game %s started, you are X.\n%s", g.ID, g.Board)

	case "move":
		if len(args) != 3 {
			fmt.Fprintln(c.out, "Usage: /ttt move <game-id> <0-8>")
			return
		}
		pos, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(c.out, "⚠️ bad position %q\n", args[2])
			return
		}
		g, err := c.node.PlayMove(args[1], pos)
		if err != nil {
			fmt.Fprintf(c.out, "⚠️ %v\n", err)
			return
		}
		fmt.Fprint(c.out, g.Board.String())
		if g.Finished {
			fmt.Fprintf(c.out, "Game over: %s.\n", g.Outcome())
		}

	case "list":
		games := c.node.Games().List()
		if len(games) == 0 {
			fmt.Fprintln(c.out, "No games.")
			return
		}
		for _, g := range games {
			state := fmt.Sprintf("turn %d", g.Turn)
			if g.Finished {
				state = g.Outcome()
			}
			fmt.Fprintf(c.out, "  %s vs %s, you are %c, %s\n", g.ID, g.Opponent, g.LocalSymbol, state)
		}

	default:
		fmt.Fprintf(c.out, "Unknown ttt action %q.\n", args[0])
	}
}

func (c *console) cmdProfile(line string) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		fmt.Fprintln(c.out, "Usage: /profile <display-name> <status>")
		return
	}
	c.node.SetProfile(parts[1], parts[2])
	if err := c.node.Announce(); err != nil {
		fmt.Fprintf(c.out, "⚠️ profile saved but announce failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Profile announced as %q.\n", parts[1])
}

func (c *console) cmdRevoke(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: /revoke <token>")
		return
	}
	if err := c.node.RevokeToken(args[0]); err != nil {
		fmt.Fprintf(c.out, "⚠️ %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Revocation broadcast.")
}

func (c *console) cmdStats() {
	stats := c.node.GetStats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.out, "  %-16s %v\n", k, stats[k])
	}
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
