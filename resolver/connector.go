package resolver

import (
	"context"
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Pattern: Strategy -- swap how the cluster context is
// established without changing the query logic.

// Connector establishes a cluster context. Implementations
// must wrap credential failures with ErrAuthConfig.
type Connector interface {
	Connect(ctx context.Context) (kubernetes.Interface, error)
}

// ConnectorFunc adapts a plain function to the Connector
// interface.
type ConnectorFunc func(
	ctx context.Context,
) (kubernetes.Interface, error)

// Connect delegates to the wrapped function.
func (f ConnectorFunc) Connect(
	ctx context.Context,
) (kubernetes.Interface, error) {
	return f(ctx)
}

// InCluster returns a Connector using the service account
// credentials mounted into the pod.
func InCluster() Connector {
	return ConnectorFunc(func(
		_ context.Context,
	) (kubernetes.Interface, error) {
		const errCtx = "loading in-cluster config"

		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w: %w",
				errCtx, ErrAuthConfig, err,
			)
		}

		return newClientset(restConfig)
	})
}

// Kubeconfig returns a Connector reading credentials from
// the kubeconfig file at path. It is meant for running the
// tool outside a cluster while debugging templates.
func Kubeconfig(path string) Connector {
	return ConnectorFunc(func(
		_ context.Context,
	) (kubernetes.Interface, error) {
		const errCtx = "loading kubeconfig"

		restConfig, err := clientcmd.BuildConfigFromFlags(
			"", path,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w: %w",
				errCtx, ErrAuthConfig, err,
			)
		}

		return newClientset(restConfig)
	})
}

func newClientset(
	restConfig *rest.Config,
) (kubernetes.Interface, error) {
	const errCtx = "creating clientset"

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w: %w",
			errCtx, ErrAuthConfig, err,
		)
	}

	return clientset, nil
}
