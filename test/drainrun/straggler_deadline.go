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

	"github.com/aws/eks-node-drainer/test/drainrun/mock"
)

var _ = Describe("Drain run", func() {
	When("a pod never leaves the node", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			infra.StickyPods["default/web-1-a"] = true

			err = infra.Run()
		})

		It("succeeds", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("polls until the drain deadline, then waits out the grace interval", func() {
			// 180s deadline at a 5s interval is 36 polls, then one 30s wait.
			Expect(infra.Clock.Sleeps).To(HaveLen(37))
			for _, sleep := range infra.Clock.Sleeps[:36] {
				Expect(sleep).To(Equal(5 * time.Second))
			}
			Expect(infra.Clock.Sleeps[36]).To(Equal(30 * time.Second))
		})

		It("does not re-evict the straggler", func() {
			Expect(infra.Evictions).To(HaveKeyWithValue("default/web-1-a", 1))
		})

		It("leaves only the straggler and the DaemonSet pod on the node", func() {
			Expect(infra.NodePods(infra.NodeNames[1])).To(ConsistOf(
				"default/web-1-a",
				"kube-system/fluentd-1",
			))
		})

		It("still completes the lifecycle action exactly once", func() {
			Expect(infra.CompletedLifecycleActions).To(HaveLen(1))
			Expect(infra.ASGLifecycleActions[infra.InstanceIDs[1]]).To(Equal(mock.StateComplete))
		})
	})
})
