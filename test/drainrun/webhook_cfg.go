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
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aws/eks-node-drainer/test/drainrun/mock"
)

var _ = Describe("Drain run", func() {
	When("a webhook is configured", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			infra.Config.WebhookURL = "http://webhook.example.com"
			infra.Config.WebhookTemplate = `{{ .NodeName }} evictedAll={{ .EvictedAll }} stragglers={{ .StragglerCount }}`

			err = infra.Run()
		})

		It("succeeds", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("posts the drain result once", func() {
			Expect(infra.WebhookRequests).To(HaveLen(1))
			Expect(infra.WebhookRequests[0].Method).To(Equal(http.MethodPost))
			Expect(infra.WebhookRequests[0].Header.Get("Content-type")).To(Equal("application/json"))

			Expect(infra.WebhookBodies).To(ConsistOf(
				"ip-10-0-1-5.ec2.internal evictedAll=true stragglers=0",
			))
		})
	})

	When("the webhook post fails", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			infra.Config.WebhookURL = "http://webhook.example.com"
			infra.Config.WebhookTemplate = `{{ .NodeName }}`
			infra.WebhookSendFunc = func(_ *http.Request) (*http.Response, error) {
				return nil, fmt.Errorf("connection refused")
			}

			err = infra.Run()
		})

		It("does not fail the invocation", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("still completes the lifecycle action", func() {
			Expect(infra.CompletedLifecycleActions).To(HaveLen(1))
		})
	})

	When("the webhook responds with a server error", func() {
		var (
			infra *mock.Infrastructure
			err   error
		)

		BeforeEach(func() {
			infra = mock.NewInfrastructure()
			infra.ResizeCluster(3)
			infra.Event = infra.NewEvent(infra.InstanceIDs[1])

			infra.Config.WebhookURL = "http://webhook.example.com"
			infra.Config.WebhookTemplate = `{{ .NodeName }}`
			infra.WebhookSendFunc = func(req *http.Request) (*http.Response, error) {
				infra.WebhookRequests = append(infra.WebhookRequests, req)
				return &http.Response{StatusCode: http.StatusInternalServerError, Body: http.NoBody}, nil
			}

			err = infra.Run()
		})

		It("does not fail the invocation", func() {
			Expect(err).ToNot(HaveOccurred())
		})

		It("still completes the lifecycle action", func() {
			Expect(infra.WebhookRequests).To(HaveLen(1))
			Expect(infra.CompletedLifecycleActions).To(HaveLen(1))
		})
	})
})
