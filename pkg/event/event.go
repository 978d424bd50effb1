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

package event

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

/* Example EventBridge event:

{
  "version": "0",
  "id": "782d5b4c-0f6f-1fd6-9d62-ecf6aed0a470",
  "detail-type": "EC2 Instance-terminate Lifecycle Action",
  "source": "aws.autoscaling",
  "account": "123456789012",
  "time": "2020-07-01T22:19:58Z",
  "region": "us-east-1",
  "resources": [
    "arn:aws:autoscaling:us-east-1:123456789012:autoScalingGroup:26e7234b-03a4-47fb-b0a9-2b241662774e:autoScalingGroupName/eks-workers"
  ],
  "detail": {
    "LifecycleActionToken": "0befcbdb-6ecd-498a-9ff7-ae9b54447cd6",
    "AutoScalingGroupName": "eks-workers",
    "LifecycleHookName": "drain-node-hook",
    "EC2InstanceId": "i-0633ac2b0d9769723",
    "LifecycleTransition": "autoscaling:EC2_INSTANCE_TERMINATING",
    "NotificationMetadata": "prod-cluster"
  }
}
*/

// AWSMetadata contains the envelope properties shared by all AWS EventBridge
// events.
type AWSMetadata struct {
	Account    string    `json:"account"`
	DetailType string    `json:"detail-type"`
	Id         string    `json:"id"`
	Region     string    `json:"region"`
	Resources  []string  `json:"resources"`
	Source     string    `json:"source"`
	Time       time.Time `json:"time"`
	Version    string    `json:"version"`
}

func (e AWSMetadata) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("source", e.Source)
	enc.AddString("detail-type", e.DetailType)
	enc.AddString("id", e.Id)
	enc.AddTime("time", e.Time)
	enc.AddString("region", e.Region)
	enc.AddArray("resources", zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, resource := range e.Resources {
			enc.AppendString(resource)
		}
		return nil
	}))
	enc.AddString("version", e.Version)
	enc.AddString("account", e.Account)
	return nil
}

// AWSEvent contains the properties defined in AWS EventBridge schema
// aws.autoscaling@EC2InstanceTerminateLifecycleAction v1. The lifecycle hook's
// notification metadata carries the name of the EKS cluster the instance
// belongs to.
type AWSEvent struct {
	AWSMetadata

	Detail EC2InstanceTerminateLifecycleActionDetail `json:"detail"`
}

func (e AWSEvent) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	zap.Inline(e.AWSMetadata).AddTo(enc)
	enc.AddObject("detail", e.Detail)
	return nil
}

// Validate reports every required detail property that is missing from the
// event. The lifecycle action token is optional.
func (e AWSEvent) Validate() error {
	var errs error
	if e.Detail.EC2InstanceId == "" {
		errs = multierr.Append(errs, fmt.Errorf("event detail has no EC2InstanceId"))
	}
	if e.Detail.AutoScalingGroupName == "" {
		errs = multierr.Append(errs, fmt.Errorf("event detail has no AutoScalingGroupName"))
	}
	if e.Detail.LifecycleHookName == "" {
		errs = multierr.Append(errs, fmt.Errorf("event detail has no LifecycleHookName"))
	}
	if e.Detail.NotificationMetadata == "" {
		errs = multierr.Append(errs, fmt.Errorf("event detail has no NotificationMetadata (cluster name)"))
	}
	return errs
}

type EC2InstanceTerminateLifecycleActionDetail struct {
	LifecycleHookName    string `json:"LifecycleHookName"`
	LifecycleTransition  string `json:"LifecycleTransition"`
	AutoScalingGroupName string `json:"AutoScalingGroupName"`
	EC2InstanceId        string `json:"EC2InstanceId"`
	LifecycleActionToken string `json:"LifecycleActionToken"`
	NotificationMetadata string `json:"NotificationMetadata"`
}

func (e EC2InstanceTerminateLifecycleActionDetail) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("LifecycleHookName", e.LifecycleHookName)
	enc.AddString("LifecycleTransition", e.LifecycleTransition)
	enc.AddString("AutoScalingGroupName", e.AutoScalingGroupName)
	enc.AddString("EC2InstanceId", e.EC2InstanceId)
	enc.AddString("LifecycleActionToken", e.LifecycleActionToken)
	enc.AddString("NotificationMetadata", e.NotificationMetadata)
	return nil
}
