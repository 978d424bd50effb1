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

package drain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/eks-node-drainer/pkg/drain"
	h "github.com/aws/eks-node-drainer/pkg/test"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kubectldrain "k8s.io/kubectl/pkg/drain"
)

func TestCordonPreparesHelper(t *testing.T) {
	clientset := nodeClientSet()

	var gotHelper *kubectldrain.Helper
	var gotNode *v1.Node
	var gotDesired bool
	cordoner := drain.CordonFunc(func(helper *kubectldrain.Helper, node *v1.Node, desired bool) error {
		gotHelper = helper
		gotNode = node
		gotDesired = desired
		return nil
	})

	node := &v1.Node{ObjectMeta: metav1.ObjectMeta{Name: nodeName}}
	err := cordoner.Cordon(discardContext(), node, kubectldrain.Helper{Client: clientset})
	h.Ok(t, err)

	h.Equals(t, node, gotNode)
	h.Equals(t, true, gotDesired)
	h.Assert(t, gotHelper.Ctx != nil, "expected the helper context to be set")
	h.Assert(t, gotHelper.Out != nil, "expected the helper output writer to be set")
	h.Assert(t, gotHelper.ErrOut != nil, "expected the helper error writer to be set")
	h.Equals(t, clientset, gotHelper.Client)
}

func TestCordonNilNode(t *testing.T) {
	cordoner := drain.CordonFunc(func(*kubectldrain.Helper, *v1.Node, bool) error {
		t.Fatal("cordon function should not be called")
		return nil
	})

	err := cordoner.Cordon(discardContext(), nil, kubectldrain.Helper{})
	h.Nok(t, err)
}

func TestCordonError(t *testing.T) {
	cordonErr := errors.New("connection refused")
	cordoner := drain.CordonFunc(func(*kubectldrain.Helper, *v1.Node, bool) error {
		return cordonErr
	})

	node := &v1.Node{ObjectMeta: metav1.ObjectMeta{Name: nodeName}}
	err := cordoner.Cordon(discardContext(), node, kubectldrain.Helper{})
	h.Equals(t, cordonErr, err)
}

func TestDefaultCordonerMarksNodeUnschedulable(t *testing.T) {
	clientset := nodeClientSet()

	node, err := clientset.CoreV1().Nodes().Get(context.Background(), nodeName, metav1.GetOptions{})
	h.Ok(t, err)
	h.Equals(t, false, node.Spec.Unschedulable)

	err = drain.DefaultCordoner.Cordon(discardContext(), node, kubectldrain.Helper{Client: clientset})
	h.Ok(t, err)

	node, err = clientset.CoreV1().Nodes().Get(context.Background(), nodeName, metav1.GetOptions{})
	h.Ok(t, err)
	h.Equals(t, true, node.Spec.Unschedulable)
}
