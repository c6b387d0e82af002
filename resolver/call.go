package resolver

import (
	"context"
	"fmt"
	"sort"
)

// method describes one operation reachable from a template.
// Arguments past required are optional and default to "".
type method struct {
	required int
	optional int
	fn       func(
		ctx context.Context,
		re *Resolver,
		args []string,
	) (string, error)
}

// methods maps template method names to operations. The
// snake_case names are kept so templates written for the
// python init script keep rendering.
//
//nolint:gochecknoglobals // immutable dispatch table
var methods = map[string]method{
	"env": {
		required: 1,
		fn: func(
			_ context.Context, re *Resolver, args []string,
		) (string, error) {
			return re.Env(args[0])
		},
	},
	"deploymentId": {
		fn: func(
			ctx context.Context, re *Resolver, _ []string,
		) (string, error) {
			return re.DeploymentID(ctx)
		},
	},
	"service": {
		required: 1,
		optional: 1,
		fn: func(
			ctx context.Context, re *Resolver, args []string,
		) (string, error) {
			return re.Service(ctx, args[0], args[1])
		},
	},
	"podIPByLabel": {
		required: 1,
		optional: 1,
		fn: func(
			ctx context.Context, re *Resolver, args []string,
		) (string, error) {
			return re.PodIPByLabel(ctx, args[0], args[1])
		},
	},
	"podIPByEnvName": {
		required: 1,
		optional: 1,
		fn: func(
			ctx context.Context, re *Resolver, args []string,
		) (string, error) {
			return re.PodIPByEnvName(ctx, args[0], args[1])
		},
	},
}

//nolint:gochecknoinits // aliases share entries above
func init() {
	aliases := map[string]string{
		"deployment_id":         "deploymentId",
		"k8s_service":           "service",
		"pod_ip_label_selector": "podIPByLabel",
		"pod_ip_env_name":       "podIPByEnvName",
	}

	for alias, name := range aliases {
		methods[alias] = methods[name]
	}
}

// Methods returns the sorted names accepted by Call.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Call invokes the operation registered under name with
// string arguments, as parsed from a template expression.
// Missing optional arguments are passed as empty strings.
func (re *Resolver) Call(
	ctx context.Context,
	name string,
	args []string,
) (string, error) {
	me, ok := methods[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}

	if len(args) < me.required ||
		len(args) > me.required+me.optional {
		return "", fmt.Errorf(
			"%w: %s takes %d to %d, got %d",
			ErrArguments, name,
			me.required, me.required+me.optional,
			len(args),
		)
	}

	padded := make([]string, me.required+me.optional)
	copy(padded, args)

	return me.fn(ctx, re, padded)
}
