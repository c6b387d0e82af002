// Package main provides the resolver CLI that evaluates
// template expressions such as a.k8s_service("influxsrv")
// against the cluster and prints one value per line. It is
// meant for checking a task file template before rollout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/hyperpilotio/node_agent_init/resolver"
	"github.com/hyperpilotio/node_agent_init/templating"
)

func run(
	ctx context.Context,
	args []string,
	out io.Writer,
) error {
	const errCtx = "resolver"

	var (
		namespace  string
		kubeconfig string
		list       bool
	)

	fs := flag.NewFlagSet(errCtx, flag.ContinueOnError)

	fs.StringVar(
		&namespace, "namespace",
		os.Getenv("NAMESPACE"),
		"namespace used when an expression omits one",
	)
	fs.StringVar(
		&kubeconfig, "kubeconfig",
		os.Getenv("KUBECONFIG"),
		"kubeconfig path; in-cluster credentials when empty",
	)
	fs.BoolVar(
		&list, "list", false,
		"print the available methods and exit",
	)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if list {
		_, err := fmt.Fprintln(
			out, strings.Join(resolver.Methods(), "\n"),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		return nil
	}

	if fs.NArg() == 0 {
		return fmt.Errorf(
			"%s: at least one expression is required",
			errCtx,
		)
	}

	connector := resolver.InCluster()
	if kubeconfig != "" {
		connector = resolver.Kubeconfig(kubeconfig)
	}

	re := resolver.New(
		connector, resolver.WithNamespace(namespace),
	)

	for _, src := range fs.Args() {
		ex, err := templating.ParseExpression(src)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		val, err := re.Call(ctx, ex.Method, ex.Args)
		if err != nil {
			return fmt.Errorf(
				"%s: evaluating %s: %w", errCtx, ex, err,
			)
		}

		if _, err := fmt.Fprintln(out, val); err != nil {
			return fmt.Errorf(
				"%s: writing output: %w", errCtx, err,
			)
		}
	}

	return nil
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	slog.Error(err.Error())

	if errors.Is(err, resolver.ErrAuthConfig) {
		os.Exit(int(syscall.EPERM))
	}

	os.Exit(2) //nolint:mnd // generic failure
}
