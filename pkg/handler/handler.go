/*
Copyright 2022 Amazon.com, Inc. or its affiliates. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/eks-node-drainer/pkg/cluster"
	"github.com/aws/eks-node-drainer/pkg/config"
	"github.com/aws/eks-node-drainer/pkg/drain"
	"github.com/aws/eks-node-drainer/pkg/event"
	"github.com/aws/eks-node-drainer/pkg/lifecycle"
	"github.com/aws/eks-node-drainer/pkg/logging"
	"github.com/aws/eks-node-drainer/pkg/webhook"

	"k8s.io/client-go/kubernetes"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

type (
	NodeNameGetter interface {
		GetNodeName(context.Context, string) (string, error)
	}

	ClusterConfigGetter interface {
		GetClusterConfig(context.Context, string) (*clientcmdapi.Config, error)
	}

	NewClientsetFunc func(*clientcmdapi.Config) (kubernetes.Interface, error)

	// Handler runs one drain invocation end to end: resolve the node, build
	// cluster access, drain, complete the ASG lifecycle action, notify.
	Handler struct {
		NodeNameGetter
		ClusterConfigGetter

		NewClientset             NewClientsetFunc
		LifecycleActionCompleter lifecycle.ASGLifecycleActionCompleter
		Webhook                  webhook.Client
		Config                   config.Config

		// Now and Sleep are passed through to the drainer. When nil the
		// time package functions are used.
		Now   func() time.Time
		Sleep func(time.Duration)
	}
)

// Handle drains the node backing the instance named in the lifecycle event.
// The returned error is non-nil only for the fatal cases: a malformed event,
// a failure to resolve the instance's node name, or a failure to build
// cluster access. Everything downstream of those is best effort; the ASG
// lifecycle action is always completed with CONTINUE so the instance
// terminates even when pods remain.
func (h Handler) Handle(ctx context.Context, evt event.AWSEvent) error {
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).
		Named("handler").
		With("event", evt))

	if err := evt.Validate(); err != nil {
		logging.FromContext(ctx).
			With("error", err).
			Error("invalid lifecycle event")
		return err
	}

	instanceID := evt.Detail.EC2InstanceId
	clusterName := evt.Detail.NotificationMetadata

	nodeName, err := h.GetNodeName(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("resolving node name of instance %s: %w", instanceID, err)
	}

	kubeConfig, err := h.GetClusterConfig(ctx, clusterName)
	if err != nil {
		return fmt.Errorf("building kubeconfig for cluster %s: %w", clusterName, err)
	}

	if path := h.Config.KubeconfigPath; path != "" {
		if err := cluster.WriteConfig(kubeConfig, path); err != nil {
			logging.FromContext(ctx).
				With("error", err).
				With("path", path).
				Warn("failed to write kubeconfig file")
		}
	}

	clientSet, err := h.newClientset(kubeConfig)
	if err != nil {
		return fmt.Errorf("creating Kubernetes client for cluster %s: %w", clusterName, err)
	}

	podClient := drain.PodClient{
		ClientSet:          clientSet,
		GracePeriodSeconds: h.Config.PodEvictionGracePeriod,
	}
	planner := drain.Planner{NodePodsLister: podClient}

	if h.Config.DryRun {
		return h.dryRun(ctx, planner, nodeName, evt)
	}

	drainer := drain.Drainer{
		Cordoner:        drain.DefaultCordoner,
		EvictableLister: planner,
		PodEvictor:      podClient,
		ClientSet:       clientSet,

		PollInterval:     time.Duration(h.Config.PollInterval) * time.Second,
		DrainDeadline:    time.Duration(h.Config.DrainDeadline) * time.Second,
		PostDeadlineWait: time.Duration(h.Config.PostDeadlineWait) * time.Second,

		Now:   h.Now,
		Sleep: h.Sleep,
	}

	outcome := drainer.Drain(ctx, nodeName)
	logging.FromContext(ctx).
		With("outcome", outcome).
		Info("node drain finished")

	h.completeLifecycleAction(ctx, evt)

	notification := webhook.Notification{
		NodeName:             nodeName,
		InstanceID:           instanceID,
		ClusterName:          clusterName,
		AutoScalingGroupName: evt.Detail.AutoScalingGroupName,
		EvictedAll:           outcome.EvictedAll,
		StragglerCount:       len(outcome.Stragglers),
		StartTime:            evt.Time,
	}
	for _, ref := range outcome.Stragglers {
		notification.Stragglers = append(notification.Stragglers, ref.Namespace+"/"+ref.Name)
	}
	// The webhook client logs its own failures.
	_ = h.Webhook.NewRequest(notification).Send(ctx)

	return nil
}

// completeLifecycleAction tells the ASG to continue terminating the
// instance. Failures are logged, never retried; the lifecycle hook's own
// timeout advances the action if this call does not.
func (h Handler) completeLifecycleAction(ctx context.Context, evt event.AWSEvent) {
	retryable, err := lifecycle.Complete(ctx, h.LifecycleActionCompleter, lifecycle.Input{
		AutoScalingGroupName: evt.Detail.AutoScalingGroupName,
		LifecycleActionToken: evt.Detail.LifecycleActionToken,
		LifecycleHookName:    evt.Detail.LifecycleHookName,
		EC2InstanceID:        evt.Detail.EC2InstanceId,
	})
	if err != nil {
		logging.FromContext(ctx).
			With("error", err).
			With("retryable", retryable).
			Error("failed to complete ASG lifecycle action")
		return
	}
	logging.FromContext(ctx).Info("completed ASG lifecycle action")
}

func (h Handler) dryRun(ctx context.Context, planner drain.Planner, nodeName string, evt event.AWSEvent) error {
	logger := logging.FromContext(ctx).With("node", nodeName)
	logger.Info("dry run: would cordon node")

	refs, err := planner.ListEvictable(ctx, nodeName)
	if err != nil {
		return fmt.Errorf("listing evictable pods on node %s: %w", nodeName, err)
	}

	for _, ref := range refs {
		logger.With("pod", ref).Info("dry run: would evict pod")
	}
	logger.
		With("lifecycleHookName", evt.Detail.LifecycleHookName).
		With("autoScalingGroupName", evt.Detail.AutoScalingGroupName).
		Info("dry run: would complete ASG lifecycle action")
	return nil
}

func (h Handler) newClientset(kubeConfig *clientcmdapi.Config) (kubernetes.Interface, error) {
	if h.NewClientset != nil {
		return h.NewClientset(kubeConfig)
	}
	return cluster.NewClientset(kubeConfig)
}
