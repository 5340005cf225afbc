package kserve

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"model-registry-service/internal/config"
	"model-registry-service/internal/core/domain"
	output "model-registry-service/internal/core/ports/output"
)

var inferenceServiceGVR = schema.GroupVersionResource{
	Group:    "serving.kserve.io",
	Version:  "v1beta1",
	Resource: "inferenceservices",
}

// Labels the deployment tooling puts on InferenceServices that serve a
// registered model.
const (
	LabelModelName    = "modelregistry.ai-platform/registered-model-name"
	LabelModelVersion = "modelregistry.ai-platform/model-version"
	LabelStage        = "modelregistry.ai-platform/stage"
)

type kserveClient struct {
	client    dynamic.Interface
	enabled   bool
	namespace string
}

// NewKServeClient builds a read-only client. Outside the cluster the usual
// kubeconfig loading rules apply ($KUBECONFIG, then ~/.kube/config) unless a
// path is configured.
func NewKServeClient(cfg *config.KubernetesConfig) (output.KServeClient, error) {
	if !cfg.Enabled {
		return &kserveClient{}, nil
	}

	restCfg, err := restConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return newWithClient(client, cfg.Namespace), nil
}

func restConfig(cfg *config.KubernetesConfig) (*rest.Config, error) {
	if cfg.InCluster {
		return rest.InClusterConfig()
	}
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if cfg.KubeConfigPath != "" {
		rules.ExplicitPath = cfg.KubeConfigPath
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
}

// newWithClient wraps an existing dynamic client. An empty namespace lists
// across all namespaces.
func newWithClient(client dynamic.Interface, namespace string) *kserveClient {
	return &kserveClient{
		client:    client,
		enabled:   true,
		namespace: namespace,
	}
}

func (c *kserveClient) IsAvailable() bool {
	return c.enabled
}

func (c *kserveClient) ListEndpoints(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error) {
	if !c.enabled {
		return nil, domain.ErrServingNotAvailable
	}

	selector := labels.Set{LabelModelName: modelName}.AsSelector().String()
	list, err := c.client.Resource(inferenceServiceGVR).
		Namespace(c.namespace).
		List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("list kserve inferenceservices: %w", err)
	}

	endpoints := make([]domain.ServingEndpoint, 0, len(list.Items))
	for i := range list.Items {
		endpoints = append(endpoints, c.toEndpoint(&list.Items[i], modelName))
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Name < endpoints[j].Name })

	log.WithFields(log.Fields{
		"model": modelName,
		"count": len(endpoints),
	}).Debug("Listed KServe endpoints")
	return endpoints, nil
}

func (c *kserveClient) toEndpoint(obj *unstructured.Unstructured, modelName string) domain.ServingEndpoint {
	lbls := obj.GetLabels()
	ep := domain.ServingEndpoint{
		Name:         obj.GetName(),
		ModelName:    modelName,
		ModelVersion: lbls[LabelModelVersion],
		Stage:        domain.Stage(lbls[LabelStage]),
		Source:       domain.EndpointSourceKServe,
	}
	if !ep.Stage.IsValid() {
		ep.Stage = ""
	}
	c.parseStatus(obj, &ep)
	return ep
}

// parseStatus rolls the Ready condition up into an endpoint state. Without a
// Ready condition the service is still being reconciled.
func (c *kserveClient) parseStatus(obj *unstructured.Unstructured, ep *domain.ServingEndpoint) {
	ep.State = domain.EndpointStatePending

	statusMap, found, _ := unstructured.NestedMap(obj.Object, "status")
	if !found {
		return
	}

	ep.URL, _, _ = unstructured.NestedString(statusMap, "url")

	conditions, found, _ := unstructured.NestedSlice(statusMap, "conditions")
	if !found {
		return
	}
	for _, cond := range conditions {
		condMap, ok := cond.(map[string]interface{})
		if !ok {
			continue
		}
		condType, _ := condMap["type"].(string)
		condStatus, _ := condMap["status"].(string)
		if condType != "Ready" {
			continue
		}

		switch condStatus {
		case "True":
			ep.State = domain.EndpointStateReady
		case "False":
			ep.State = domain.EndpointStateFailed
			if msg, ok := condMap["message"].(string); ok {
				ep.Message = msg
			}
		}
		break
	}
}

var _ output.KServeClient = (*kserveClient)(nil)
