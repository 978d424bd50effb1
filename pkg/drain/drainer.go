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

package drain

import (
	"context"
	"time"

	"github.com/aws/eks-node-drainer/pkg/logging"

	"go.uber.org/multierr"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	kubectldrain "k8s.io/kubectl/pkg/drain"
)

type (
	Cordoner interface {
		Cordon(context.Context, *v1.Node, kubectldrain.Helper) error
	}

	EvictableLister interface {
		ListEvictable(context.Context, string) ([]WorkloadRef, error)
	}

	PodEvictor interface {
		EvictPod(context.Context, WorkloadRef) error
	}

	// Drainer empties a node ahead of instance termination.
	Drainer struct {
		Cordoner
		EvictableLister
		PodEvictor

		ClientSet kubernetes.Interface

		PollInterval     time.Duration
		DrainDeadline    time.Duration
		PostDeadlineWait time.Duration

		// Now and Sleep default to the time package functions.
		Now   func() time.Time
		Sleep func(time.Duration)
	}
)

// Drain cordons the node, evicts every evictable pod exactly once, then
// watches the node until it is empty or the drain deadline passes. Step
// failures are collected as diagnostics instead of stopping the sequence;
// only a failure of the initial pod listing prevents evictions from being
// submitted.
func (d Drainer) Drain(ctx context.Context, nodeName string) Outcome {
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).
		Named("drain").
		With("node", nodeName))

	now, sleep := d.clock()
	outcome := Outcome{NodeName: nodeName}

	logging.FromContext(ctx).Info("cordoning node")
	if err := d.cordon(ctx, nodeName); err != nil {
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{Op: OpCordon, Err: err})
	}

	refs, err := d.ListEvictable(ctx, nodeName)
	if err != nil {
		outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{Op: OpPlan, Err: err})
		return outcome
	}

	logging.FromContext(ctx).With("podCount", len(refs)).Info("evicting all evictable pods")

	var evictErrs error
	for _, ref := range refs {
		logging.FromContext(ctx).With("pod", ref).Info("evicting pod")
		if err := d.EvictPod(ctx, ref); err != nil {
			evictErrs = multierr.Append(evictErrs, err)
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{Op: OpEvict, Ref: ref, Err: err})
		}
	}
	if evictErrs != nil {
		logging.FromContext(ctx).
			With("error", evictErrs).
			Error("failed to evict some pods")
	}

	remaining := refs
	deadline := now().Add(d.DrainDeadline)
	for len(remaining) > 0 && now().Before(deadline) {
		logging.FromContext(ctx).With("podCount", len(remaining)).Info("waiting for pods to evict")
		sleep(d.PollInterval)

		polled, err := d.ListEvictable(ctx, nodeName)
		if err != nil {
			outcome.Diagnostics = append(outcome.Diagnostics, Diagnostic{Op: OpPoll, Err: err})
			continue
		}
		remaining = polled
	}

	outcome.EvictedAll = len(remaining) == 0
	outcome.Stragglers = remaining

	if outcome.EvictedAll {
		logging.FromContext(ctx).Info("all pods have been evicted, safe to proceed with node termination")
	} else {
		logging.FromContext(ctx).
			With("pods", workloadRefs(remaining)).
			Warn("pods did not drain before the deadline")
		sleep(d.PostDeadlineWait)
	}

	return outcome
}

func (d Drainer) cordon(ctx context.Context, nodeName string) error {
	node, err := d.ClientSet.CoreV1().Nodes().Get(ctx, nodeName, metav1.GetOptions{})
	if err != nil {
		logging.FromContext(ctx).
			With("error", err).
			Error("failed to get node")
		return err
	}
	return d.Cordoner.Cordon(ctx, node, kubectldrain.Helper{Client: d.ClientSet})
}

func (d Drainer) clock() (func() time.Time, func(time.Duration)) {
	now, sleep := d.Now, d.Sleep
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return now, sleep
}
