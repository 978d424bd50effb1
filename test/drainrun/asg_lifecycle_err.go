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
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aws/eks-node-drainer/test/drainrun/mock"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

func lifecycleResponseError(statusCode int) *awshttp.ResponseError {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{
				Response: &http.Response{
					StatusCode: statusCode,
				},
			},
			Err: fmt.Errorf("test error"),
		},
		RequestID: "mock_request_id",
	}
}

var _ = Describe("Drain run", func() {
	completingFails := func(statusCode int) (*mock.Infrastructure, error) {
		infra := mock.NewInfrastructure()
		infra.ResizeCluster(3)
		infra.Event = infra.NewEvent(infra.InstanceIDs[1])

		attempts := 0
		infra.CompleteASGLifecycleActionFunc = func(_ context.Context, _ *autoscaling.CompleteLifecycleActionInput, _ ...func(*autoscaling.Options)) (*autoscaling.CompleteLifecycleActionOutput, error) {
			attempts++
			return nil, lifecycleResponseError(statusCode)
		}

		err := infra.Run()
		Expect(attempts).To(Equal(1))
		return infra, err
	}

	When("completing the lifecycle action fails with a 400 response", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra, err = completingFails(400)
		})

		It("does not fail the invocation", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("still drains the node", func() {
			Expect(infra.CordonedNodes).To(HaveKey(infra.NodeNames[1]))
			Expect(infra.Evictions).To(HaveLen(3))
		})
	})

	When("completing the lifecycle action fails with a non-400 response", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra, err = completingFails(500)
		})

		It("does not fail the invocation", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("still drains the node", func() {
			Expect(infra.CordonedNodes).To(HaveKey(infra.NodeNames[1]))
			Expect(infra.Evictions).To(HaveLen(3))
		})
	})
})
