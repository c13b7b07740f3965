package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/tee-keybroker-client/common"
	"github.com/ruteri/tee-keybroker-client/discovery"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

var FlagBrokerURL = &cli.StringFlag{
	Name:    "url",
	Value:   "http://127.0.0.1:8000",
	EnvVars: []string{"KBS_URL"},
	Usage:   "HTTP url of the key broker (e.g. http://server:4242, or srv+https://_kbs._tcp.example.com to look it up in DNS)",
}

var FlagDNSServer = &cli.StringFlag{
	Name:  "dns-server",
	Usage: "host:port of the DNS server used for srv+ broker urls, defaults to /etc/resolv.conf",
}

// BrokerURL returns the --url flag with srv+ urls resolved.
func BrokerURL(cCtx *cli.Context) (string, error) {
	resolver := &discovery.Resolver{
		Server:  cCtx.String(FlagDNSServer.Name),
		Timeout: 5 * time.Second,
	}
	return resolver.BrokerURL(cCtx.String(FlagBrokerURL.Name))
}

var FlagChannel = &cli.StringFlag{
	Name:    "channel",
	EnvVars: []string{"KBC_CHANNEL"},
	Usage:   "tunnel channel address, unix:/path/to/socket or vsock:<cid>:<port>",
}

var FlagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 0,
	Usage: "timeout of each broker call, 0 disables it",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

func CommonFlags(service string) []cli.Flag {
	return []cli.Flag{
		LogJsonFlag,
		LogDebugFlag,
		LogUidFlag,
		LogServiceFlagFn(service),
	}
}
