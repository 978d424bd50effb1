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

package drain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/eks-node-drainer/pkg/drain"
	h "github.com/aws/eks-node-drainer/pkg/test"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type stubPodsLister func(context.Context, string) (*v1.PodList, error)

func (f stubPodsLister) ListNodePods(ctx context.Context, nodeName string) (*v1.PodList, error) {
	return f(ctx, nodeName)
}

func pod(namespace, name string, owners ...metav1.OwnerReference) v1.Pod {
	return v1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:       namespace,
			Name:            name,
			OwnerReferences: owners,
		},
		Spec: v1.PodSpec{NodeName: nodeName},
	}
}

func owner(kind string) metav1.OwnerReference {
	return metav1.OwnerReference{APIVersion: "apps/v1", Kind: kind, Name: "owner"}
}

func TestListEvictableExcludesDaemonSetPods(t *testing.T) {
	planner := drain.Planner{NodePodsLister: stubPodsLister(
		func(_ context.Context, gotNodeName string) (*v1.PodList, error) {
			h.Equals(t, nodeName, gotNodeName)
			return &v1.PodList{Items: []v1.Pod{
				pod("default", "web-0", owner("ReplicaSet")),
				pod("kube-system", "aws-node-4fkvp", owner("DaemonSet")),
				pod("default", "web-1", owner("StatefulSet")),
			}}, nil
		})}

	refs, err := planner.ListEvictable(context.Background(), nodeName)
	h.Ok(t, err)
	h.Equals(t, []drain.WorkloadRef{
		{Namespace: "default", Name: "web-0", OwnerKind: "ReplicaSet"},
		{Namespace: "default", Name: "web-1", OwnerKind: "StatefulSet"},
	}, refs)
}

func TestListEvictableIncludesOwnerlessPods(t *testing.T) {
	planner := drain.Planner{NodePodsLister: stubPodsLister(
		func(context.Context, string) (*v1.PodList, error) {
			return &v1.PodList{Items: []v1.Pod{
				pod("default", "standalone-0"),
			}}, nil
		})}

	refs, err := planner.ListEvictable(context.Background(), nodeName)
	h.Ok(t, err)
	h.Equals(t, []drain.WorkloadRef{
		{Namespace: "default", Name: "standalone-0"},
	}, refs)
}

func TestListEvictableOnlyFirstOwnerReferenceDecides(t *testing.T) {
	planner := drain.Planner{NodePodsLister: stubPodsLister(
		func(context.Context, string) (*v1.PodList, error) {
			return &v1.PodList{Items: []v1.Pod{
				pod("default", "daemon-first", owner("DaemonSet"), owner("ReplicaSet")),
				pod("default", "daemon-second", owner("ReplicaSet"), owner("DaemonSet")),
			}}, nil
		})}

	refs, err := planner.ListEvictable(context.Background(), nodeName)
	h.Ok(t, err)

	// A DaemonSet in any position after the first does not exclude the pod.
	h.Equals(t, []drain.WorkloadRef{
		{Namespace: "default", Name: "daemon-second", OwnerKind: "ReplicaSet"},
	}, refs)
}

func TestListEvictableEmptyNode(t *testing.T) {
	planner := drain.Planner{NodePodsLister: stubPodsLister(
		func(context.Context, string) (*v1.PodList, error) {
			return &v1.PodList{}, nil
		})}

	refs, err := planner.ListEvictable(context.Background(), nodeName)
	h.Ok(t, err)
	h.Equals(t, 0, len(refs))
}

func TestListEvictableListError(t *testing.T) {
	listErr := errors.New("api unavailable")
	planner := drain.Planner{NodePodsLister: stubPodsLister(
		func(context.Context, string) (*v1.PodList, error) {
			return nil, listErr
		})}

	_, err := planner.ListEvictable(context.Background(), nodeName)
	h.Equals(t, listErr, err)
}
