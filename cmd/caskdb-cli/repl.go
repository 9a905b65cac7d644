package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/go-caskdb/client"
	"github.com/0xRadioAc7iv/go-caskdb/internal/config"
	"github.com/0xRadioAc7iv/go-caskdb/internal/protocol"
	"github.com/0xRadioAc7iv/go-caskdb/internal/utils"
)

const helpString = `
Available Commands:

PING
  Check if the server is alive.
  Response: PONG!

SET <key> <value>
  Store a value for the given key. Quote keys or values containing spaces.
  Overwrites the value if the key already exists.
  Response: ok

GET <key>
  Retrieve the value associated with the key.
  Response: value | (nil)

DELETE <key>
  Delete the key and its value.
  Response: ok | (nil) if the key did not exist

EXISTS <key>
  Check if a key exists.
  Response: true | false

COUNT
  Return the total number of keys stored.
  Response: integer

LIST
  List all stored keys.
  Response: list of keys | (empty)

FLUSH
  Make every write so far durable on the server.
  Response: ok

HELP
  Show this help message.

EXIT
  Close the client connection.
`

func newRootCmd() *cobra.Command {
	var host string
	var port int

	c := &cobra.Command{
		Use:          "caskdb-cli",
		Short:        "Interactive shell for a caskdb server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := client.Connect(client.WithHost(host), client.WithPort(port))
			if err != nil {
				return err
			}
			defer conn.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %v:%d\n", host, port)
			fmt.Fprintln(cmd.OutOrStdout(), "Type commands. 'help' for information or 'exit' to quit.")

			return repl(conn)
		},
	}

	c.Flags().StringVar(&host, "host", config.DefaultHost, "caskdb server host")
	c.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "caskdb server port")

	return c
}

func newReader() (*readline.Instance, error) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("ping"),
		readline.PcItem("set"),
		readline.PcItem("get"),
		readline.PcItem("delete"),
		readline.PcItem("exists"),
		readline.PcItem("count"),
		readline.PcItem("list"),
		readline.PcItem("flush"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	return readline.NewEx(&readline.Config{
		Prompt:          "> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

func repl(conn *client.Client) error {
	rl, err := newReader()
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintln(out, strings.TrimSpace(helpString))
			continue
		}

		cmd, key, value, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Fprintln(out, "parse error:", err)
			continue
		}

		resp, err := conn.Execute(cmd, key, value)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, format(resp))
	}
}

func format(resp *protocol.Response) string {
	switch resp.Status {
	case protocol.StatusNil:
		return "(nil)"
	case protocol.StatusError:
		return "(error) " + resp.Body
	default:
		if resp.Body == "" {
			return "(empty)"
		}
		return resp.Body
	}
}
