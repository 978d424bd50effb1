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

package drain

import (
	"go.uber.org/zap/zapcore"

	v1 "k8s.io/api/core/v1"
)

const daemonSetKind = "DaemonSet"

// WorkloadRef identifies a pod on the node being drained.
type WorkloadRef struct {
	Namespace string
	Name      string
	OwnerKind string
}

func newWorkloadRef(pod v1.Pod) WorkloadRef {
	ref := WorkloadRef{
		Namespace: pod.Namespace,
		Name:      pod.Name,
	}
	if owners := pod.GetOwnerReferences(); len(owners) != 0 {
		ref.OwnerKind = owners[0].Kind
	}
	return ref
}

// daemonOwned reports whether the pod's first owner reference is a DaemonSet.
// Later owner references do not affect the result.
func (w WorkloadRef) daemonOwned() bool {
	return w.OwnerKind == daemonSetKind
}

func (w WorkloadRef) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("namespace", w.Namespace)
	enc.AddString("name", w.Name)
	if w.OwnerKind != "" {
		enc.AddString("ownerKind", w.OwnerKind)
	}
	return nil
}

type workloadRefs []WorkloadRef

func (w workloadRefs) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, ref := range w {
		if err := enc.AppendObject(ref); err != nil {
			return err
		}
	}
	return nil
}
