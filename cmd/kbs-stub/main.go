package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/tee-keybroker-client/api"
	"github.com/ruteri/tee-keybroker-client/api/kbsstub"
	"github.com/ruteri/tee-keybroker-client/cmd/flags"
	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/storage"
	"github.com/urfave/cli/v2"
)

var cliFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: api.DefaultListenAddr,
		Usage: "address to listen on for the broker API",
	},
	&cli.StringFlag{
		Name:  "secret",
		Value: "secret passphrase",
		Usage: "secret released to attested workloads",
	},
	&cli.BoolFlag{
		Name:  "check-binding",
		Value: true,
		Usage: "reject SNP reports that do not bind the session nonce and key",
	},
	&cli.StringSliceFlag{
		Name:    "resource-store",
		EnvVars: []string{"KBS_RESOURCE_STORE"},
		Usage:   "resource store location URI (file://, s3://, vault://, ipfs://), repeat for fallback stores; overrides --secret",
	},
	&cli.StringFlag{
		Name:  "resource-path",
		Value: "default/key/1",
		Usage: "repository/type/tag of the resource released to attested workloads",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
}

func main() {
	app := &cli.App{
		Name:  "kbs-stub",
		Usage: "Serve an in-memory key broker for development",
		Flags: append(cliFlags, flags.CommonFlags("kbs-stub")...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			handler := kbsstub.NewHandler([]byte(cCtx.String("secret")), cCtx.Bool("check-binding"), logger)
			if locations := cCtx.StringSlice("resource-store"); len(locations) > 0 {
				path, err := interfaces.ParseResourcePath(cCtx.String("resource-path"))
				if err != nil {
					return err
				}
				store, err := storage.NewStoreFactory(logger).CreateMultiStore(locations)
				if err != nil {
					return err
				}
				logger.Info("Releasing resources from store", "store", store.LocationURI(), "resource", path.String())
				handler.WithResources(store, path)
			}

			server := kbsstub.New(&api.HTTPServerConfig{
				ListenAddr:               cCtx.String("listen-addr"),
				EnablePprof:              cCtx.Bool("pprof"),
				Log:                      logger,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}, handler)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
