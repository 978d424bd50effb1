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

package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	v1 "k8s.io/api/core/v1"
	policyv1beta1 "k8s.io/api/policy/v1beta1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/aws/eks-node-drainer/pkg/cluster"
	"github.com/aws/eks-node-drainer/pkg/config"
	"github.com/aws/eks-node-drainer/pkg/event"
	"github.com/aws/eks-node-drainer/pkg/handler"
	"github.com/aws/eks-node-drainer/pkg/logging"
	nodename "github.com/aws/eks-node-drainer/pkg/node/name"
	"github.com/aws/eks-node-drainer/pkg/test"
	"github.com/aws/eks-node-drainer/pkg/webhook"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
)

type (
	EC2InstanceID = string
	NodeName      = string
	PodName       = string
	State         = string
)

const (
	ClusterName          = "test-cluster"
	AutoScalingGroupName = "testAutoScalingGroupName"
	LifecycleHookName    = "testLifecycleHookName"
	LifecycleActionToken = "testLifecycleActionToken"

	StatePending  State = "pending"
	StateComplete State = "complete"
)

var podsResource = schema.GroupVersionResource{Version: "v1", Resource: "pods"}

// Clock replaces the drainer's wall clock so convergence scenarios finish
// instantly. Every Sleep advances the current time and is recorded.
type Clock struct {
	Time   time.Time
	Sleeps []time.Duration
}

func (c *Clock) Now() time.Time { return c.Time }

func (c *Clock) Sleep(d time.Duration) {
	c.Sleeps = append(c.Sleeps, d)
	c.Time = c.Time.Add(d)
}

type Infrastructure struct {
	// Input variables
	// These variables are assigned default values during test setup but may
	// be modified to represent different cluster states or AWS service
	// responses.

	// Maps an EC2 instance id to the corresponding reservation for a node
	// in the cluster.
	EC2Reservations map[EC2InstanceID]ec2types.Reservation
	// EKS clusters that DescribeCluster can return.
	Clusters map[string]ekstypes.Cluster
	// Maps an EC2 instance id to an ASG lifecycle action state value.
	ASGLifecycleActions map[EC2InstanceID]State
	// The cluster state backing all Kubernetes API calls.
	ClientSet *fake.Clientset
	// Pods (keyed "namespace/name") that ignore their eviction and stay
	// scheduled, turning into stragglers.
	StickyPods map[PodName]bool

	// Output variables
	// These variables may be modified while the handler runs and should be
	// used to verify the resulting state.

	// A lookup table for nodes that were cordoned.
	CordonedNodes map[NodeName]bool
	// Counts eviction requests per pod, keyed "namespace/name".
	Evictions map[PodName]int
	// Inputs of every CompleteLifecycleAction call.
	CompletedLifecycleActions []*autoscaling.CompleteLifecycleActionInput
	// Requests sent to the configured webhook, with their bodies.
	WebhookRequests []*http.Request
	WebhookBodies   []string

	// Other variables

	// Names of all nodes currently in the cluster.
	NodeNames []NodeName
	// Instance IDs for all nodes currently in the cluster.
	InstanceIDs []EC2InstanceID

	// Default inputs to .Handler.Handle().
	Ctx   context.Context
	Event event.AWSEvent

	// Timing configuration passed to the handler under test.
	Config config.Config
	Clock  *Clock

	// Stubs
	// Default implementations interact with the backing variables listed
	// above. A test may put in place alternate behavior when needed.
	DescribeEC2InstancesFunc       test.DescribeEC2InstancesFunc
	DescribeEKSClusterFunc         test.DescribeEKSClusterFunc
	CompleteASGLifecycleActionFunc test.CompleteASGLifecycleActionFunc
	NewClientsetFunc               handler.NewClientsetFunc
	WebhookSendFunc                webhook.HttpSendFunc
}

func NewInfrastructure() *Infrastructure {
	infra := &Infrastructure{
		EC2Reservations:     map[EC2InstanceID]ec2types.Reservation{},
		Clusters:            map[string]ekstypes.Cluster{},
		ASGLifecycleActions: map[EC2InstanceID]State{},
		ClientSet:           fake.NewSimpleClientset(),
		StickyPods:          map[PodName]bool{},

		CordonedNodes: map[NodeName]bool{},
		Evictions:     map[PodName]int{},

		Clock: &Clock{Time: time.Now()},
		Config: config.Config{
			PodEvictionGracePeriod: 750,
			PollInterval:           5,
			DrainDeadline:          180,
			PostDeadlineWait:       30,
			WebhookHeaders:         `{"Content-type":"application/json"}`,
			JsonLogging:            true,
			LogLevel:               "info",
		},
	}

	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(GinkgoWriter),
		zap.NewAtomicLevelAt(zap.DebugLevel),
	))
	infra.Ctx = logging.WithLogger(context.Background(), logger.Sugar())

	infra.Clusters[ClusterName] = ekstypes.Cluster{
		Name:     aws.String(ClusterName),
		Endpoint: aws.String("https://test-cluster.eks.amazonaws.com"),
		CertificateAuthority: &ekstypes.Certificate{
			Data: aws.String(base64.StdEncoding.EncodeToString([]byte("test-certificate-authority"))),
		},
	}

	// The fake clientset's tracker ignores field selectors, so apply the
	// planner's spec.nodeName selector here.
	infra.ClientSet.PrependReactor("list", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		listAction, ok := action.(k8stesting.ListActionImpl)
		if !ok {
			return false, nil, nil
		}
		selector := listAction.GetListRestrictions().Fields
		if selector == nil || selector.Empty() {
			return false, nil, nil
		}

		obj, err := infra.ClientSet.Tracker().List(podsResource, v1.SchemeGroupVersion.WithKind("Pod"), listAction.GetNamespace())
		if err != nil {
			return true, nil, err
		}
		podList, ok := obj.(*v1.PodList)
		if !ok {
			return true, nil, fmt.Errorf("unexpected list type %T", obj)
		}

		matched := podList.Items[:0]
		for _, pod := range podList.Items {
			if selector.Matches(fields.Set{"spec.nodeName": pod.Spec.NodeName}) {
				matched = append(matched, pod)
			}
		}
		podList.Items = matched
		return true, podList, nil
	})

	infra.ClientSet.PrependReactor("create", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		if action.GetSubresource() != "eviction" {
			return false, nil, nil
		}
		createAction, ok := action.(k8stesting.CreateActionImpl)
		if !ok {
			return false, nil, nil
		}
		eviction, ok := createAction.GetObject().(*policyv1beta1.Eviction)
		if !ok {
			return true, nil, fmt.Errorf("unexpected eviction type %T", createAction.GetObject())
		}

		key := eviction.Namespace + "/" + eviction.Name
		infra.Evictions[key]++
		if infra.StickyPods[key] {
			return true, nil, nil
		}
		if err := infra.ClientSet.Tracker().Delete(podsResource, eviction.Namespace, eviction.Name); err != nil {
			return true, nil, err
		}
		return true, nil, nil
	})

	// The kubectl cordon helper patches the node, falling back to an update.
	infra.ClientSet.PrependReactor("patch", "nodes", func(action k8stesting.Action) (bool, runtime.Object, error) {
		patchAction, ok := action.(k8stesting.PatchActionImpl)
		if ok {
			infra.CordonedNodes[patchAction.GetName()] = true
		}
		return false, nil, nil
	})
	infra.ClientSet.PrependReactor("update", "nodes", func(action k8stesting.Action) (bool, runtime.Object, error) {
		updateAction, ok := action.(k8stesting.UpdateActionImpl)
		if !ok {
			return false, nil, nil
		}
		if node, ok := updateAction.GetObject().(*v1.Node); ok && node.Spec.Unschedulable {
			infra.CordonedNodes[node.Name] = true
		}
		return false, nil, nil
	})

	infra.DescribeEC2InstancesFunc = func(_ context.Context, input *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
		output := &ec2.DescribeInstancesOutput{}
		for _, instanceID := range input.InstanceIds {
			if reservation, found := infra.EC2Reservations[instanceID]; found {
				output.Reservations = append(output.Reservations, reservation)
			}
		}
		return output, nil
	}

	infra.DescribeEKSClusterFunc = func(_ context.Context, input *eks.DescribeClusterInput, _ ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
		eksCluster, found := infra.Clusters[aws.ToString(input.Name)]
		if !found {
			return nil, fmt.Errorf("cluster not found: %s", aws.ToString(input.Name))
		}
		return &eks.DescribeClusterOutput{Cluster: &eksCluster}, nil
	}

	infra.CompleteASGLifecycleActionFunc = func(_ context.Context, input *autoscaling.CompleteLifecycleActionInput, _ ...func(*autoscaling.Options)) (*autoscaling.CompleteLifecycleActionOutput, error) {
		infra.CompletedLifecycleActions = append(infra.CompletedLifecycleActions, input)

		instanceID := aws.ToString(input.InstanceId)
		state, found := infra.ASGLifecycleActions[instanceID]
		if !found {
			return nil, fmt.Errorf("no lifecycle action in progress for instance %s", instanceID)
		}
		Expect(state).To(Equal(StatePending))
		infra.ASGLifecycleActions[instanceID] = StateComplete
		return &autoscaling.CompleteLifecycleActionOutput{}, nil
	}

	infra.NewClientsetFunc = func(kubeConfig *clientcmdapi.Config) (kubernetes.Interface, error) {
		Expect(kubeConfig.CurrentContext).To(Equal(ClusterName))
		return infra.ClientSet, nil
	}

	infra.WebhookSendFunc = func(req *http.Request) (*http.Response, error) {
		infra.WebhookRequests = append(infra.WebhookRequests, req)
		if req.Body != nil {
			body, err := io.ReadAll(req.Body)
			Expect(err).ToNot(HaveOccurred())
			infra.WebhookBodies = append(infra.WebhookBodies, string(body))
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}

	return infra
}

// ResizeCluster adds nodes and backing EC2 instances until the cluster has
// nodeCount nodes. Each node carries two ReplicaSet pods, one ownerless pod,
// and one DaemonSet pod. The first four addresses of a subnet are reserved
// by EC2 so host numbering starts at .4.
func (i *Infrastructure) ResizeCluster(nodeCount int) {
	for index := len(i.NodeNames); index < nodeCount; index++ {
		nodeName := fmt.Sprintf("ip-10-0-1-%d.ec2.internal", index+4)
		instanceID := fmt.Sprintf("i-%017d", index+1)

		i.NodeNames = append(i.NodeNames, nodeName)
		i.InstanceIDs = append(i.InstanceIDs, instanceID)

		i.EC2Reservations[instanceID] = ec2types.Reservation{
			Instances: []ec2types.Instance{
				{
					InstanceId:     aws.String(instanceID),
					PrivateDnsName: aws.String(nodeName),
				},
			},
		}
		i.ASGLifecycleActions[instanceID] = StatePending

		node := &v1.Node{ObjectMeta: metav1.ObjectMeta{Name: nodeName}}
		Expect(i.ClientSet.Tracker().Add(node)).To(Succeed())

		i.addPod(nodeName, "default", fmt.Sprintf("web-%d-a", index), "ReplicaSet")
		i.addPod(nodeName, "default", fmt.Sprintf("web-%d-b", index), "ReplicaSet")
		i.addPod(nodeName, "default", fmt.Sprintf("standalone-%d", index), "")
		i.addPod(nodeName, "kube-system", fmt.Sprintf("fluentd-%d", index), "DaemonSet")
	}
}

func (i *Infrastructure) addPod(nodeName NodeName, namespace, name, ownerKind string) {
	pod := &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
		},
		Spec: v1.PodSpec{NodeName: nodeName},
	}
	if ownerKind != "" {
		pod.OwnerReferences = []metav1.OwnerReference{
			{Kind: ownerKind, Name: name + "-owner"},
		}
	}
	Expect(i.ClientSet.Tracker().Add(pod)).To(Succeed())
}

// NewEvent returns the lifecycle event EventBridge would deliver for the
// instance.
func (i *Infrastructure) NewEvent(instanceID EC2InstanceID) event.AWSEvent {
	return event.AWSEvent{
		AWSMetadata: event.AWSMetadata{
			Account:    "123456789012",
			DetailType: "EC2 Instance-terminate Lifecycle Action",
			Id:         "782d5b4c-0f6f-1fd6-9d62-ecf6aed0a470",
			Region:     "us-east-1",
			Source:     "aws.autoscaling",
			Time:       i.Clock.Time,
			Version:    "0",
		},
		Detail: event.EC2InstanceTerminateLifecycleActionDetail{
			LifecycleHookName:    LifecycleHookName,
			LifecycleTransition:  "autoscaling:EC2_INSTANCE_TERMINATING",
			AutoScalingGroupName: AutoScalingGroupName,
			EC2InstanceId:        instanceID,
			LifecycleActionToken: LifecycleActionToken,
			NotificationMetadata: ClusterName,
		},
	}
}

// Run builds the handler from the current stubs and configuration and
// handles i.Event.
func (i *Infrastructure) Run() error {
	webhookClient, err := webhook.ClientBuilder(func(webhook.ProxyFunc) webhook.HttpSendFunc {
		return func(req *http.Request) (*http.Response, error) {
			return i.WebhookSendFunc(req)
		}
	}).NewClient(i.Config.WebhookURL, i.Config.WebhookProxy, i.Config.WebhookTemplate, mustParseHeaders(i.Config.WebhookHeaders))
	Expect(err).ToNot(HaveOccurred())

	h := handler.Handler{
		NodeNameGetter: nodename.Getter{
			EC2InstancesDescriber: test.MockedEC2{
				DescribeInstancesFunc: func(ctx context.Context, input *ec2.DescribeInstancesInput, options ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
					return i.DescribeEC2InstancesFunc(ctx, input, options...)
				},
			},
		},
		ClusterConfigGetter: cluster.Getter{
			EKSClusterDescriber: test.MockedEKS{
				DescribeClusterFunc: func(ctx context.Context, input *eks.DescribeClusterInput, options ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
					return i.DescribeEKSClusterFunc(ctx, input, options...)
				},
			},
		},
		NewClientset: func(kubeConfig *clientcmdapi.Config) (kubernetes.Interface, error) {
			return i.NewClientsetFunc(kubeConfig)
		},
		LifecycleActionCompleter: test.MockedASG{
			CompleteLifecycleActionFunc: func(ctx context.Context, input *autoscaling.CompleteLifecycleActionInput, options ...func(*autoscaling.Options)) (*autoscaling.CompleteLifecycleActionOutput, error) {
				return i.CompleteASGLifecycleActionFunc(ctx, input, options...)
			},
		},
		Webhook: webhookClient,
		Config:  i.Config,

		Now:   i.Clock.Now,
		Sleep: i.Clock.Sleep,
	}

	return h.Handle(i.Ctx, i.Event)
}

// NodePods lists the names of the pods currently scheduled to the node,
// keyed "namespace/name".
func (i *Infrastructure) NodePods(nodeName NodeName) []PodName {
	obj, err := i.ClientSet.Tracker().List(podsResource, v1.SchemeGroupVersion.WithKind("Pod"), metav1.NamespaceAll)
	Expect(err).ToNot(HaveOccurred())

	podList, ok := obj.(*v1.PodList)
	Expect(ok).To(BeTrue())

	names := []PodName{}
	for _, pod := range podList.Items {
		if pod.Spec.NodeName == nodeName {
			names = append(names, pod.Namespace+"/"+pod.Name)
		}
	}
	return names
}

// Node fetches the current state of the named node.
func (i *Infrastructure) Node(nodeName NodeName) *v1.Node {
	node, err := i.ClientSet.CoreV1().Nodes().Get(i.Ctx, nodeName, metav1.GetOptions{})
	Expect(err).ToNot(HaveOccurred())
	return node
}

func mustParseHeaders(headersJSON string) http.Header {
	headers, err := webhook.ParseHeaders(headersJSON)
	Expect(err).ToNot(HaveOccurred())
	return headers
}
