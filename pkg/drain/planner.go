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

	"github.com/aws/eks-node-drainer/pkg/logging"

	v1 "k8s.io/api/core/v1"
)

type (
	NodePodsLister interface {
		ListNodePods(context.Context, string) (*v1.PodList, error)
	}

	Planner struct {
		NodePodsLister
	}
)

// ListEvictable returns the pods on the node that an eviction sweep should
// target. Pods whose first owner reference is a DaemonSet are excluded;
// everything else, including pods with no owner references, is included.
func (p Planner) ListEvictable(ctx context.Context, nodeName string) ([]WorkloadRef, error) {
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).Named("plan"))

	podList, err := p.ListNodePods(ctx, nodeName)
	if err != nil {
		logging.FromContext(ctx).
			With("error", err).
			Error("failed to list pods on node")
		return nil, err
	}

	refs := make([]WorkloadRef, 0, len(podList.Items))
	for _, pod := range podList.Items {
		ref := newWorkloadRef(pod)
		if ref.daemonOwned() {
			continue
		}
		refs = append(refs, ref)
	}

	return refs, nil
}
