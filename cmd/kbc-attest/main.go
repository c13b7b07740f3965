package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ruteri/tee-keybroker-client/api/kbsclient"
	"github.com/ruteri/tee-keybroker-client/cmd/flags"
	"github.com/ruteri/tee-keybroker-client/cryptoutils"
	"github.com/ruteri/tee-keybroker-client/evidence"
	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/session"
	"github.com/ruteri/tee-keybroker-client/tunnel"
	"github.com/urfave/cli/v2"
)

var flagTee = &cli.StringFlag{
	Name:  "tee",
	Value: "snp",
	Usage: "TEE kind: 'snp' or 'tdx'",
}

var flagGeneration = &cli.StringFlag{
	Name:  "snp-generation",
	Value: "milan",
	Usage: "SNP processor generation: 'milan' or 'genoa'",
}

var flagHardware = &cli.StringFlag{
	Name:  "hardware",
	Value: "device",
	Usage: "report source: 'device', 'remote' or 'dummy' (unsigned SNP report, development only)",
}

var flagRemoteAddr = &cli.StringFlag{
	Name:  "remote-quote-addr",
	Usage: "address of the remote quote provider, required with --hardware remote",
}

var flagMeasurement = &cli.StringFlag{
	Name:  "measurement",
	Usage: "hex encoded launch measurement placed in dummy reports",
}

var flagKeyBits = &cli.IntFlag{
	Name:  "key-bits",
	Value: session.DefaultKeyBits,
	Usage: "size of the ephemeral session key",
}

var flagOutput = &cli.StringFlag{
	Name:  "output",
	Usage: "file to write the released secret to, stdout if empty",
}

func main() {
	app := &cli.App{
		Name:  "kbc-attest",
		Usage: "Attest to the key broker and fetch the released secret",
		Flags: append([]cli.Flag{
			flags.FlagBrokerURL,
			flags.FlagDNSServer,
			flags.FlagChannel,
			flags.FlagTimeout,
			flagTee,
			flagGeneration,
			flagHardware,
			flagRemoteAddr,
			flagMeasurement,
			flagKeyBits,
			flagOutput,
		}, flags.CommonFlags("kbc-attest")...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			ev, err := evidenceProvider(cCtx)
			if err != nil {
				return err
			}

			hw, err := hardwareProvider(cCtx, ev.Tee())
			if err != nil {
				return err
			}

			transport, closeTransport, err := transport(cCtx, logger)
			if err != nil {
				return err
			}
			defer closeTransport()

			key, err := session.GenerateKey(rand.Reader, cCtx.Int(flagKeyBits.Name))
			if err != nil {
				return err
			}

			attester := &kbsclient.Attester{
				Client:   kbsclient.NewClient(transport, logger),
				Evidence: ev,
				Hardware: hw,
				Key:      key,
			}

			secret, err := attester.Run()
			if err != nil {
				logger.Error("Attestation failed", "err", err)
				return err
			}
			logger.Info("Secret released", "size", len(secret))

			if path := cCtx.String(flagOutput.Name); path != "" {
				return os.WriteFile(path, secret, 0o600)
			}
			_, err = os.Stdout.Write(secret)
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func evidenceProvider(cCtx *cli.Context) (interfaces.EvidenceProvider, error) {
	switch tee := interfaces.Tee(cCtx.String(flagTee.Name)); tee {
	case interfaces.TeeSNP:
		gen, err := evidence.ParseSnpGeneration(cCtx.String(flagGeneration.Name))
		if err != nil {
			return nil, err
		}
		return evidence.NewSnpEvidence(gen), nil
	case interfaces.TeeTDX:
		return evidence.NewTdxEvidence(), nil
	default:
		return nil, fmt.Errorf("unsupported tee %q", tee)
	}
}

func hardwareProvider(cCtx *cli.Context, tee interfaces.Tee) (cryptoutils.AttestationProvider, error) {
	switch hw := cCtx.String(flagHardware.Name); hw {
	case "device":
		return cryptoutils.AttestationProviderFor(tee)
	case "remote":
		addr := cCtx.String(flagRemoteAddr.Name)
		if addr == "" {
			return nil, fmt.Errorf("--%s is required with --hardware remote", flagRemoteAddr.Name)
		}
		return &cryptoutils.RemoteAttestationProvider{Address: addr, Tee: tee}, nil
	case "dummy":
		if tee != interfaces.TeeSNP {
			return nil, fmt.Errorf("dummy reports are only available for snp")
		}
		provider := &cryptoutils.DummySNPAttestationProvider{}
		if m := cCtx.String(flagMeasurement.Name); m != "" {
			measurement, err := hex.DecodeString(m)
			if err != nil {
				return nil, fmt.Errorf("invalid measurement: %w", err)
			}
			if len(measurement) != evidence.MeasurementSize {
				return nil, fmt.Errorf("measurement must be %d bytes, got %d", evidence.MeasurementSize, len(measurement))
			}
			copy(provider.Measurement[:], measurement)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown hardware source %q", hw)
	}
}

// transport dials the tunnel channel when one is configured and falls back
// to direct HTTP otherwise.
func transport(cCtx *cli.Context, logger *slog.Logger) (kbsclient.Transport, func(), error) {
	channel := cCtx.String(flags.FlagChannel.Name)
	if channel == "" {
		url, err := flags.BrokerURL(cCtx)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connecting to broker", "url", url)
		t, err := kbsclient.NewHTTPTransport(url, cCtx.Duration(flags.FlagTimeout.Name))
		if err != nil {
			return nil, nil, err
		}
		return t, func() {}, nil
	}

	logger.Info("Connecting to broker through tunnel", "channel", channel)
	conn, err := tunnel.Dial(channel)
	if err != nil {
		return nil, nil, err
	}
	proxy := tunnel.New(conn)
	return &kbsclient.TunnelTransport{Proxy: proxy}, func() { proxy.Close() }, nil
}
