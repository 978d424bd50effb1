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
	When("cordoning the node", func() {
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

		It("marks the node unschedulable", func() {
			Expect(infra.CordonedNodes).To(HaveKey(infra.NodeNames[1]))
			Expect(infra.Node(infra.NodeNames[1]).Spec.Unschedulable).To(BeTrue())
		})

		It("does not cordon the other nodes", func() {
			Expect(infra.Node(infra.NodeNames[0]).Spec.Unschedulable).To(BeFalse())
			Expect(infra.Node(infra.NodeNames[2]).Spec.Unschedulable).To(BeFalse())
		})
	})
})
