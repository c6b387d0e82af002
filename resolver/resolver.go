package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

const (
	// DefaultNamespace is used when a template omits the
	// namespace argument.
	DefaultNamespace = "default"

	// DefaultDeploymentLabel is the node label holding the
	// deployment id.
	DefaultDeploymentLabel = "hyperpilot/deployment"
)

// LookupEnvFunc reports the value of an environment
// variable and whether it is set. os.LookupEnv satisfies it.
type LookupEnvFunc func(name string) (string, bool)

// Resolver answers lookups made by configuration
// templates. The zero value is not usable; build one
// with New.
type Resolver struct {
	connector       Connector
	lookupEnv       LookupEnvFunc
	namespace       string
	deploymentLabel string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLookupEnv replaces os.LookupEnv as the environment
// source.
func WithLookupEnv(fn LookupEnvFunc) Option {
	return func(re *Resolver) {
		re.lookupEnv = fn
	}
}

// WithNamespace sets the namespace used when a template
// omits one.
func WithNamespace(namespace string) Option {
	return func(re *Resolver) {
		if namespace != "" {
			re.namespace = namespace
		}
	}
}

// WithDeploymentLabel sets the node label read by
// DeploymentID.
func WithDeploymentLabel(label string) Option {
	return func(re *Resolver) {
		if label != "" {
			re.deploymentLabel = label
		}
	}
}

// New returns a Resolver reaching the cluster through
// connector.
func New(connector Connector, opts ...Option) *Resolver {
	re := &Resolver{
		connector:       connector,
		lookupEnv:       os.LookupEnv,
		namespace:       DefaultNamespace,
		deploymentLabel: DefaultDeploymentLabel,
	}

	for _, opt := range opts {
		opt(re)
	}

	return re
}

// Env returns the value of the environment variable name.
func (re *Resolver) Env(name string) (string, error) {
	val, ok := re.lookupEnv(name)
	if !ok {
		return "", fmt.Errorf(
			"%w: %s", ErrMissingEnvironment, name,
		)
	}

	return val, nil
}

// DeploymentID returns the deployment label of the first
// node in the cluster, or an empty string when that node
// carries no such label.
func (re *Resolver) DeploymentID(
	ctx context.Context,
) (string, error) {
	const errCtx = "resolving deployment id"

	clientset, err := re.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	nodes, err := clientset.CoreV1().
		Nodes().
		List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf(
			"%s: listing nodes: %w", errCtx, err,
		)
	}

	if len(nodes.Items) == 0 {
		return "", fmt.Errorf(
			"%s: %w: no nodes", errCtx, ErrNotFound,
		)
	}

	node := nodes.Items[0]
	id := node.GetLabels()[re.deploymentLabel]

	slog.Info(
		"resolved deployment id",
		"node", node.Name,
		"label", re.deploymentLabel,
		"id", id,
	)

	return id, nil
}

// Service returns the http URL built from the cluster IP
// and first port of the named service.
func (re *Resolver) Service(
	ctx context.Context,
	name string,
	namespace string,
) (string, error) {
	const errCtx = "resolving service"

	namespace = re.namespaceOr(namespace)

	clientset, err := re.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	svc, err := clientset.CoreV1().
		Services(namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf(
			"%s: reading %s/%s: %w",
			errCtx, namespace, name, err,
		)
	}

	if len(svc.Spec.Ports) == 0 {
		return "", fmt.Errorf(
			"%s: %w: service %s/%s has no ports",
			errCtx, ErrNotFound, namespace, name,
		)
	}

	url := fmt.Sprintf(
		"http://%s:%d",
		svc.Spec.ClusterIP, svc.Spec.Ports[0].Port,
	)

	slog.Info(
		"resolved service",
		"service", name,
		"namespace", namespace,
		"url", url,
	)

	return url, nil
}

// PodIPByLabel returns the IP of the first pod matching
// selector in namespace.
func (re *Resolver) PodIPByLabel(
	ctx context.Context,
	selector string,
	namespace string,
) (string, error) {
	const errCtx = "resolving pod ip"

	namespace = re.namespaceOr(namespace)

	if _, err := labels.Parse(selector); err != nil {
		return "", fmt.Errorf(
			"%s: parsing selector %q: %w",
			errCtx, selector, err,
		)
	}

	clientset, err := re.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	pods := clientset.CoreV1().Pods(namespace)

	list, err := pods.List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return "", fmt.Errorf(
			"%s: listing pods %q in %s: %w",
			errCtx, selector, namespace, err,
		)
	}

	if len(list.Items) == 0 {
		return "", fmt.Errorf(
			"%s: %w: no pod matches %q in %s",
			errCtx, ErrNotFound, selector, namespace,
		)
	}

	podName := list.Items[0].Name

	pod, err := pods.Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf(
			"%s: reading pod %s/%s: %w",
			errCtx, namespace, podName, err,
		)
	}

	slog.Info(
		"resolved pod ip",
		"pod", podName,
		"selector", selector,
		"namespace", namespace,
		"ip", pod.Status.PodIP,
	)

	return pod.Status.PodIP, nil
}

// PodIPByEnvName returns the IP of the first pod labelled
// app=<value of envName> in namespace.
func (re *Resolver) PodIPByEnvName(
	ctx context.Context,
	envName string,
	namespace string,
) (string, error) {
	const errCtx = "resolving pod ip by env"

	app, err := re.Env(envName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	ip, err := re.PodIPByLabel(ctx, "app="+app, namespace)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return ip, nil
}

// connect establishes a fresh cluster context. Nothing is
// cached between operations.
func (re *Resolver) connect(
	ctx context.Context,
) (kubernetes.Interface, error) {
	if re.connector == nil {
		return nil, fmt.Errorf(
			"%w: no connector configured", ErrAuthConfig,
		)
	}

	return re.connector.Connect(ctx)
}

func (re *Resolver) namespaceOr(namespace string) string {
	if namespace == "" {
		return re.namespace
	}

	return namespace
}
