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
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

var _ = Describe("Drain run", func() {
	When("the EC2 reservation's instance has no PrivateDnsName", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			infra.DescribeEC2InstancesFunc = func(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
				return &ec2.DescribeInstancesOutput{
					Reservations: []ec2types.Reservation{
						{
							Instances: []ec2types.Instance{
								{PrivateDnsName: nil},
							},
						},
					},
				}, nil
			}

			err = infra.Run()
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})

		It("does not cordon or evict anything", func() {
			Expect(infra.CordonedNodes).To(BeEmpty())
			Expect(infra.Evictions).To(BeEmpty())
		})

		It("does not complete the lifecycle action", func() {
			Expect(infra.CompletedLifecycleActions).To(BeEmpty())
			Expect(infra.ASGLifecycleActions[infra.InstanceIDs[1]]).To(Equal(mock.StatePending))
		})
	})
})
