package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/bhandras/wcpair/internal/memsession"
	"github.com/bhandras/wcpair/internal/pairing"
	qrcode "github.com/skip2/go-qrcode"
)

const defaultPeerName = "Simulated Wallet"

const helpText = `commands:
  connect                     start a new pairing session
  disconnect                  end the current session
  load                        reload the session and its assets
  state                       print the current state
  approve <address> [name]    approve the pending pairing as the peer
  switch <address>            switch the peer's account
  reject                      reject or kill the session as the peer
  help                        show this help
  quit                        exit
`

// consoleAliases maps short console verbs to controller actions. The full
// action names are accepted too.
var consoleAliases = map[string]pairing.Action{
	"connect":    pairing.StartSession,
	"start":      pairing.StartSession,
	"disconnect": pairing.DisconnectSession,
	"load":       pairing.LoadSession,
	"reload":     pairing.LoadSession,
}

// console reads commands from the user and renders controller states. The
// in-process peer stands in for the remote wallet.
type console struct {
	ctrl *pairing.Controller
	peer *memsession.Provider
	log  *slog.Logger
	qr   bool

	mu  sync.Mutex
	out io.Writer
}

func newConsole(ctrl *pairing.Controller, peer *memsession.Provider, out io.Writer,
	log *slog.Logger, qr bool) *console {

	return &console{ctrl: ctrl, peer: peer, out: out, log: log, qr: qr}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// readCommands executes one command per input line. It returns nil when the
// input ends, the user quits, or ctx is canceled.
func (c *console) readCommands(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = sc.Err()
	}()

	c.printf("type help for a list of commands\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if scanErr != nil {
					return fmt.Errorf("read input: %w", scanErr)
				}
				return nil
			}
			if c.execute(line) {
				return nil
			}
		}
	}
}

// execute runs a single console command and reports whether the console
// should exit.
func (c *console) execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "quit", "exit":
		return true

	case "help":
		c.printf("%s", helpText)

	case "state":
		// The stored view action was already shown by the renderer.
		s := c.ctrl.State()
		s.ViewAction = nil
		c.renderState(s)

	case "approve":
		if len(args) == 0 {
			c.printf("usage: approve <address> [name]\n")
			return false
		}
		name := defaultPeerName
		if len(args) > 1 {
			name = strings.Join(args[1:], " ")
		}
		c.reportPeer(verb, c.peer.Approve(name, args[0]))

	case "switch":
		if len(args) != 1 {
			c.printf("usage: switch <address>\n")
			return false
		}
		c.reportPeer(verb, c.peer.UpdateAccounts(args[0]))

	case "reject":
		c.peer.Reject()

	default:
		action, ok := consoleAliases[verb]
		if !ok {
			parsed, err := pairing.ParseAction(verb)
			if err != nil {
				c.printf("unknown command %q, type help for a list\n", verb)
				return false
			}
			action = parsed
		}
		c.ctrl.Submit(action)
	}
	return false
}

func (c *console) reportPeer(verb string, err error) {
	if err != nil {
		c.log.Debug("peer command failed", "command", verb, "err", err)
		c.printf("%s failed: %v\n", verb, err)
	}
}

// renderStates prints every state received until the channel closes.
func (c *console) renderStates(states <-chan pairing.State) {
	for s := range states {
		c.renderState(s)
	}
}

func (c *console) renderState(s pairing.State) {
	var b strings.Builder

	status := "inactive"
	if s.SessionActive {
		status = "active"
	}
	fmt.Fprintf(&b, "session %s", status)
	if s.Loading {
		b.WriteString(" (loading)")
	}
	b.WriteString("\n")

	if acct := s.ConnectedAccount; acct != nil {
		fmt.Fprintf(&b, "  account %s", acct.DisplayAddress)
		if acct.DisplayName != "" {
			fmt.Fprintf(&b, " (%s)", acct.DisplayName)
		}
		b.WriteString("\n")
	}
	for _, a := range s.Assets {
		fmt.Fprintf(&b, "  asset %s / %s\n", a.Contract, a.Token)
	}
	if v := s.ViewAction; v != nil && v.Kind == pairing.ViewOpenURI {
		fmt.Fprintf(&b, "  open %s\n", v.URI)
		if c.qr {
			b.WriteString(c.qrCode(v.URI))
		}
	}

	c.printf("%s", b.String())
}

// qrCode renders data as a compact terminal QR code. It returns an empty
// string if the data cannot be encoded.
func (c *console) qrCode(data string) string {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		c.log.Warn("failed to generate QR code", "err", err)
		return ""
	}
	return qr.ToSmallString(false)
}
