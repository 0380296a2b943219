// Command relayclient is a terminal client for the game session relay.
//
// "host" creates a session and prints join requests and member inputs as they
// arrive, accepting requests automatically or after a prompt. "join" asks to
// join a session and, once accepted, sends every stdin line as an input event:
//
//	relayclient host --auto-accept
//	relayclient join ABC123XYZ789 <<< 'stick-left 0.6'
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

const defaultURL = "ws://localhost:4000/ws"

func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "relayclient",
		Usage: "Host or join a game session through the relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   defaultURL,
				Usage:   "Relay WebSocket URL",
				Sources: cli.EnvVars("RELAY_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "host",
				Usage: "Create a session and serve join requests",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "auto-accept",
						Usage: "Accept every join request without prompting",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					client, err := Dial(ctx, cmd.String("url"), stdout)
					if err != nil {
						return err
					}
					defer client.Close()

					decide := prompt(stdin, stdout)
					if cmd.Bool("auto-accept") {
						decide = func(string) bool { return true }
					}
					return client.Host(ctx, decide)
				},
			},
			{
				Name:      "join",
				Usage:     "Join a session and send stdin lines as inputs",
				ArgsUsage: "<session-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					sessionID := strings.TrimSpace(cmd.Args().First())
					if sessionID == "" {
						return errors.New("session id is required")
					}

					client, err := Dial(ctx, cmd.String("url"), stdout)
					if err != nil {
						return err
					}
					defer client.Close()

					return client.Join(ctx, sessionID, stdin)
				},
			},
		},
	}
}

// prompt asks on out whether to accept each join request
func prompt(in io.Reader, out io.Writer) func(code string) bool {
	reader := bufio.NewReader(in)
	return func(code string) bool {
		fmt.Fprintf(out, "Accept join request %s? [y/N] ", code)
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
