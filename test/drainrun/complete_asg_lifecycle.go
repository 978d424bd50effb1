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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aws/eks-node-drainer/test/drainrun/mock"
)

var _ = Describe("Drain run", func() {
	When("completing an ASG lifecycle action", func() {
		const lifecycleActionResult = "CONTINUE"

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

		It("completes the lifecycle action exactly once", func() {
			Expect(infra.CompletedLifecycleActions).To(HaveLen(1))
			Expect(infra.ASGLifecycleActions[infra.InstanceIDs[1]]).To(Equal(mock.StateComplete))
		})

		It("sends the expected input values", func() {
			input := infra.CompletedLifecycleActions[0]

			Expect(input.AutoScalingGroupName).ToNot(BeNil())
			Expect(*input.AutoScalingGroupName).To(Equal(mock.AutoScalingGroupName))

			Expect(input.LifecycleActionResult).ToNot(BeNil())
			Expect(*input.LifecycleActionResult).To(Equal(lifecycleActionResult))

			Expect(input.LifecycleHookName).ToNot(BeNil())
			Expect(*input.LifecycleHookName).To(Equal(mock.LifecycleHookName))

			Expect(input.LifecycleActionToken).ToNot(BeNil())
			Expect(*input.LifecycleActionToken).To(Equal(mock.LifecycleActionToken))

			Expect(input.InstanceId).ToNot(BeNil())
			Expect(*input.InstanceId).To(Equal(infra.InstanceIDs[1]))
		})

		It("leaves the other lifecycle actions pending", func() {
			Expect(infra.ASGLifecycleActions[infra.InstanceIDs[0]]).To(Equal(mock.StatePending))
			Expect(infra.ASGLifecycleActions[infra.InstanceIDs[2]]).To(Equal(mock.StatePending))
		})
	})
})
