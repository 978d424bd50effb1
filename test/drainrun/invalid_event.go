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
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aws/eks-node-drainer/test/drainrun/mock"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

var _ = Describe("Drain run", func() {
	When("the lifecycle event is missing required fields", func() {
		var (
			infra             *mock.Infrastructure
			describeInstances int
			err               error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])
			infra.Event.Detail.EC2InstanceId = ""

			defaultDescribeEC2InstancesFunc := infra.DescribeEC2InstancesFunc
			infra.DescribeEC2InstancesFunc = func(ctx context.Context, input *ec2.DescribeInstancesInput, options ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
				describeInstances++
				return defaultDescribeEC2InstancesFunc(ctx, input, options...)
			}

			err = infra.Run()
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})

		It("makes no AWS or cluster calls", func() {
			Expect(describeInstances).To(BeZero())
			Expect(infra.CordonedNodes).To(BeEmpty())
			Expect(infra.Evictions).To(BeEmpty())
			Expect(infra.CompletedLifecycleActions).To(BeEmpty())
		})
	})
})
