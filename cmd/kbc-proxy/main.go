package main

import (
	"log"
	"net"
	"os"

	"github.com/ruteri/tee-keybroker-client/cmd/flags"
	"github.com/ruteri/tee-keybroker-client/tunnel"
	"github.com/urfave/cli/v2"
)

var flagListen = &cli.BoolFlag{
	Name:  "listen",
	Value: false,
	Usage: "listen on the channel address and serve a single client instead of dialing it",
}

func main() {
	channelFlag := *flags.FlagChannel
	channelFlag.Required = true

	app := &cli.App{
		Name:  "kbc-proxy",
		Usage: "Relay key broker calls of a network isolated TEE over a tunnel channel",
		Flags: append([]cli.Flag{
			&channelFlag,
			flags.FlagBrokerURL,
			flags.FlagDNSServer,
			flags.FlagTimeout,
			flagListen,
		}, flags.CommonFlags("kbc-proxy")...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			channel := cCtx.String(channelFlag.Name)
			url, err := flags.BrokerURL(cCtx)
			if err != nil {
				return err
			}

			forwarder, err := tunnel.NewHTTPForwarder(url, cCtx.Duration(flags.FlagTimeout.Name))
			if err != nil {
				return err
			}

			// Fail right away if the broker is already unreachable.
			if err := forwarder.Probe(); err != nil {
				logger.Error("Broker unreachable", "url", url, "err", err)
				return err
			}

			var conn net.Conn
			if cCtx.Bool(flagListen.Name) {
				l, err := tunnel.Listen(channel)
				if err != nil {
					logger.Error("Failed to listen on channel", "channel", channel, "err", err)
					return err
				}
				defer l.Close()

				logger.Info("Waiting for tunnel client", "channel", channel)
				conn, err = l.Accept()
				if err != nil {
					return err
				}
			} else {
				conn, err = tunnel.Dial(channel)
				if err != nil {
					logger.Error("Failed to connect to channel", "channel", channel, "err", err)
					return err
				}
			}

			proxy := tunnel.New(conn)
			defer proxy.Close()

			logger.Info("Starting HTTP proxy", "channel", channel, "url", url)
			return tunnel.NewBridge(proxy, forwarder, logger).Run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
