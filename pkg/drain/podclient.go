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

	v1 "k8s.io/api/core/v1"
	policyv1beta1 "k8s.io/api/policy/v1beta1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/client-go/kubernetes"
)

// PodClient performs pod operations against the cluster hosting the node
// being drained.
type PodClient struct {
	ClientSet kubernetes.Interface

	// GracePeriodSeconds is attached to every eviction. A negative value
	// leaves each pod's own termination grace period in effect.
	GracePeriodSeconds int
}

// ListNodePods lists the pods scheduled to the node across all namespaces.
func (p PodClient) ListNodePods(ctx context.Context, nodeName string) (*v1.PodList, error) {
	return p.ClientSet.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("spec.nodeName", nodeName).String(),
	})
}

// EvictPod submits an eviction for the pod through the eviction subresource.
func (p PodClient) EvictPod(ctx context.Context, ref WorkloadRef) error {
	eviction := &policyv1beta1.Eviction{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ref.Name,
			Namespace: ref.Namespace,
		},
	}
	if p.GracePeriodSeconds >= 0 {
		gracePeriodSeconds := int64(p.GracePeriodSeconds)
		eviction.DeleteOptions = &metav1.DeleteOptions{
			GracePeriodSeconds: &gracePeriodSeconds,
		}
	}
	return p.ClientSet.CoreV1().Pods(ref.Namespace).Evict(ctx, eviction)
}
