package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ruteri/tee-keybroker-client/api/kbsclient"
	"github.com/ruteri/tee-keybroker-client/cmd/flags"
	"github.com/ruteri/tee-keybroker-client/registration"
	"github.com/urfave/cli/v2"
)

var flagMeasurement = &cli.StringFlag{
	Name:     "measurement",
	Required: true,
	Usage:    "pre-calculated launch measurement, hex encoded (e.g. 8a60c0196d2e9f)",
}

var flagPolicy = &cli.StringFlag{
	Name:  "policy",
	Usage: "path to the attestation policy; with --queries and --resources registers a policy workload",
}

var flagQueries = &cli.StringFlag{
	Name:  "queries",
	Usage: "path to a JSON array of policy queries",
}

var flagResources = &cli.StringFlag{
	Name:  "resources",
	Usage: "path to the resources released to the workload",
}

func main() {
	app := &cli.App{
		Name:  "kbc-register",
		Usage: "Register a workload reference measurement with the key broker",
		Flags: append([]cli.Flag{
			flags.FlagBrokerURL,
			flags.FlagDNSServer,
			flags.FlagTimeout,
			flagMeasurement,
			flagPolicy,
			flagQueries,
			flagResources,
		}, flags.CommonFlags("kbc-register")...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			measurement, err := hex.DecodeString(cCtx.String(flagMeasurement.Name))
			if err != nil {
				return fmt.Errorf("invalid measurement: %w", err)
			}

			var registrar registration.Registrar
			policy, queries, resources := cCtx.String(flagPolicy.Name), cCtx.String(flagQueries.Name), cCtx.String(flagResources.Name)
			switch {
			case policy == "" && queries == "" && resources == "":
				registrar = &registration.MeasurementRegistration{}
			case policy != "" && queries != "" && resources != "":
				registrar, err = registration.LoadPolicyRegistration(policy, queries, resources)
				if err != nil {
					return err
				}
			default:
				return errors.New("--policy, --queries and --resources must be given together")
			}

			if err := registrar.Register(measurement); err != nil {
				return err
			}

			url, err := flags.BrokerURL(cCtx)
			if err != nil {
				return err
			}
			transport, err := kbsclient.NewHTTPTransport(url, cCtx.Duration(flags.FlagTimeout.Name))
			if err != nil {
				return err
			}

			logger.Info("Registering workload", "url", url, "endpoint", registrar.Endpoint())
			if err := kbsclient.NewClient(transport, logger).Register(registrar); err != nil {
				logger.Error("Registration failed", "err", err)
				return err
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
