// Copyright 2016-2017 Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License

package test

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
)

type (
	DescribeEC2InstancesFunc       = func(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeEKSClusterFunc         = func(context.Context, *eks.DescribeClusterInput, ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	CompleteASGLifecycleActionFunc = func(context.Context, *autoscaling.CompleteLifecycleActionInput, ...func(*autoscaling.Options)) (*autoscaling.CompleteLifecycleActionOutput, error)
)

// MockedEC2 mocks the EC2 API.
type MockedEC2 struct {
	DescribeInstancesFunc DescribeEC2InstancesFunc
}

func (m MockedEC2) DescribeInstances(ctx context.Context, input *ec2.DescribeInstancesInput, options ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return m.DescribeInstancesFunc(ctx, input, options...)
}

// MockedEKS mocks the EKS API.
type MockedEKS struct {
	DescribeClusterFunc DescribeEKSClusterFunc
}

func (m MockedEKS) DescribeCluster(ctx context.Context, input *eks.DescribeClusterInput, options ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	return m.DescribeClusterFunc(ctx, input, options...)
}

// MockedASG mocks the autoscaling API.
type MockedASG struct {
	CompleteLifecycleActionFunc CompleteASGLifecycleActionFunc
}

func (m MockedASG) CompleteLifecycleAction(ctx context.Context, input *autoscaling.CompleteLifecycleActionInput, options ...func(*autoscaling.Options)) (*autoscaling.CompleteLifecycleActionOutput, error) {
	return m.CompleteLifecycleActionFunc(ctx, input, options...)
}
