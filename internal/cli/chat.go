package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedanshmuni/videochat/internal/chat"
	"github.com/vedanshmuni/videochat/internal/config"
	"github.com/vedanshmuni/videochat/internal/signaling"
	"github.com/vedanshmuni/videochat/internal/ui"
)

var (
	flagServer    string
	flagInterests []string
	flagSTUN      string
	flagTURN      string
	flagTURNUser  string
	flagTURNPass  string
	flagRelay     bool
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"c"},
	Short:   "Get paired with a stranger and chat",
	Long: `Connect to the signaling server, wait for a partner (optionally filtered
by shared interests) and chat. Media flows peer to peer; text rides the
signaling relay.

Commands while chatting:
  /next    leave the current partner and wait for a new one
  /quit    disconnect and exit

Examples:
  videochat chat
  videochat chat --interest music --interest gaming
  videochat chat --server ws://localhost:8080/ws`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&flagServer, "server", "", "signaling server WebSocket URL")
	chatCmd.Flags().StringSliceVar(&flagInterests, "interest", nil, "interest tag to match on (repeatable; none matches anyone)")
	chatCmd.Flags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	chatCmd.Flags().StringVar(&flagTURN, "turn", "", "TURN server host")
	chatCmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	chatCmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	chatCmd.Flags().BoolVar(&flagRelay, "relay", false, "force media through the TURN relay")

	rootCmd.AddCommand(chatCmd)
}

func runChat() error {
	cfg, err := config.Load(config.Options{
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
	})
	if err != nil {
		return err
	}

	events := chat.Events{
		Welcome: func(sessionID string) {
			ui.PrintInfo("connected as " + sessionID)
			if len(flagInterests) > 0 {
				ui.PrintInfo("interests: " + strings.Join(flagInterests, ", "))
			}
			fmt.Printf("%s waiting for a partner...\n", ui.IconWaiting)
		},
		PartnerFound: func(partnerID string, role signaling.Role) {
			ui.PrintSuccess(fmt.Sprintf("%s partner found (%s), negotiating as %s", ui.IconPeer, partnerID, role))
		},
		Connected: func() {
			ui.PrintSuccess(ui.IconConnect + " media connected")
		},
		PartnerLeft: func() {
			ui.PrintWarning("partner left, type /next to find a new one")
		},
		Text: func(sender, message string) {
			ui.PrintChat("stranger", false, message)
		},
		Error: func(err error) {
			ui.PrintError(err.Error())
		},
	}

	session := chat.New(cfg, events, nil)
	if err := session.Start(flagInterests); err != nil {
		return err
	}

	go readInput(session)

	session.Wait()
	return nil
}

// readInput turns stdin lines into chat messages and slash commands.
func readInput(session *chat.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			session.Close()
			return
		case line == "/next":
			session.Next()
		case strings.HasPrefix(line, "/"):
			ui.PrintWarning("unknown command: " + line)
		default:
			session.SendText(line)
			ui.PrintChat("you", true, line)
		}
	}
	session.Close()
}
