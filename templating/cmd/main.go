// Binary node_agent_init rewrites the node agent task
// file in place, replacing <%= a.method("arg") =>
// placeholders with values read from the environment and
// the Kubernetes API. It runs once before the agent
// starts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/hyperpilotio/node_agent_init/resolver"
	"github.com/hyperpilotio/node_agent_init/templating"
)

const (
	defaultConfigPath = "/etc/node_agent/tasks.json"

	// exitFailure covers every failure other than missing
	// cluster credentials.
	exitFailure = 2
)

// config holds all CLI parameters.
type config struct {
	configPath      string
	output          string
	startTag        string
	endTag          string
	binding         string
	namespace       string
	deploymentLabel string
	kubeconfig      string
	validate        bool
}

func envOr(name string, fallback string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}

	return fallback
}

func parseConfig(
	fs *flag.FlagSet,
	args []string,
) (*config, error) {
	const errCtx = "parse config"

	var cfg config

	fs.StringVar(
		&cfg.configPath, "config",
		envOr("NODE_AGENT_CONFIG", defaultConfigPath),
		"task file to render in place",
	)
	fs.StringVar(
		&cfg.output, "output", "",
		"output path (defaults to -config, - for stdout)",
	)
	fs.StringVar(
		&cfg.startTag, "start_tag",
		templating.DefaultStartTag,
		"start tag for template placeholders",
	)
	fs.StringVar(
		&cfg.endTag, "end_tag",
		templating.DefaultEndTag,
		"end tag for template placeholders",
	)
	fs.StringVar(
		&cfg.binding, "binding",
		templating.DefaultBinding,
		"name templates use to reach the resolver",
	)
	fs.StringVar(
		&cfg.namespace, "namespace",
		envOr("NAMESPACE", resolver.DefaultNamespace),
		"namespace used when a template omits one",
	)
	fs.StringVar(
		&cfg.deploymentLabel, "deployment_label",
		resolver.DefaultDeploymentLabel,
		"node label holding the deployment id",
	)
	fs.StringVar(
		&cfg.kubeconfig, "kubeconfig",
		os.Getenv("KUBECONFIG"),
		"kubeconfig path; in-cluster credentials when empty",
	)
	fs.BoolVar(
		&cfg.validate, "validate", true,
		"parse rendered output before writing it",
	)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.configPath == "" {
		return nil, fmt.Errorf(
			"%s: config path is required", errCtx,
		)
	}

	switch cfg.output {
	case "":
		cfg.output = cfg.configPath
	case "-":
		cfg.output = ""
	}

	return &cfg, nil
}

func newResolver(cfg *config) *resolver.Resolver {
	connector := resolver.InCluster()
	if cfg.kubeconfig != "" {
		connector = resolver.Kubeconfig(cfg.kubeconfig)
	}

	return resolver.New(
		connector,
		resolver.WithNamespace(cfg.namespace),
		resolver.WithDeploymentLabel(cfg.deploymentLabel),
	)
}

func run(ctx context.Context, args []string) error {
	const errCtx = "node_agent_init"

	cfg, err := parseConfig(
		flag.NewFlagSet(errCtx, flag.ContinueOnError), args,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	en := templating.Engine{
		StartTag: cfg.startTag,
		EndTag:   cfg.endTag,
		Bindings: map[string]templating.Binding{
			cfg.binding: newResolver(cfg),
		},
		Validate: cfg.validate,
	}

	if err := en.ExpandFile(
		ctx, cfg.configPath, cfg.output,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// exitCode maps a run error to the process status. A
// missing cluster context exits with EPERM.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, resolver.ErrAuthConfig):
		return int(syscall.EPERM)
	default:
		return exitFailure
	}
}

func main() {
	err := run(context.Background(), os.Args[1:])
	if err != nil {
		if errors.Is(err, resolver.ErrAuthConfig) {
			slog.Error(
				"failed to load cluster configuration;" +
					" this container cannot run outside kubernetes",
			)
		}

		slog.Error(err.Error())
	}

	os.Exit(exitCode(err))
}
