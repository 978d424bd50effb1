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

package drainrun

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/aws/eks-node-drainer/test/drainrun/mock"
)

var _ = Describe("Drain run", func() {
	When("evicting the pods on the node", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			err = infra.Run()
		})

		It("succeeds", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("resolves the instance to its private DNS name", func() {
			Expect(infra.NodeNames[1]).To(Equal("ip-10-0-1-5.ec2.internal"))
		})

		It("evicts each evictable pod exactly once", func() {
			Expect(infra.Evictions).To(HaveLen(3))
			Expect(infra.Evictions).To(SatisfyAll(
				HaveKeyWithValue("default/web-1-a", 1),
				HaveKeyWithValue("default/web-1-b", 1),
				HaveKeyWithValue("default/standalone-1", 1),
			))
		})

		It("never evicts the DaemonSet pod", func() {
			Expect(infra.Evictions).ToNot(HaveKey("kube-system/fluentd-1"))
			Expect(infra.NodePods(infra.NodeNames[1])).To(ConsistOf("kube-system/fluentd-1"))
		})

		It("does not touch the pods on the other nodes", func() {
			Expect(infra.NodePods(infra.NodeNames[0])).To(HaveLen(4))
			Expect(infra.NodePods(infra.NodeNames[2])).To(HaveLen(4))
		})

		It("exits the convergence loop after one poll", func() {
			Expect(infra.Clock.Sleeps).To(Equal([]time.Duration{5 * time.Second}))
		})
	})

	When("the node has no evictable pods", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			for _, podName := range []string{"web-1-a", "web-1-b", "standalone-1"} {
				Expect(infra.ClientSet.CoreV1().Pods("default").
					Delete(infra.Ctx, podName, metav1.DeleteOptions{})).To(Succeed())
			}

			err = infra.Run()
		})

		It("succeeds", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("issues no evictions and never polls", func() {
			Expect(infra.Evictions).To(BeEmpty())
			Expect(infra.Clock.Sleeps).To(BeEmpty())
		})

		It("still completes the lifecycle action", func() {
			Expect(infra.CompletedLifecycleActions).To(HaveLen(1))
		})
	})
})
