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
)

// Op identifies a step of the drain sequence.
type Op string

const (
	OpCordon Op = "cordon"
	OpPlan   Op = "plan"
	OpEvict  Op = "evict"
	OpPoll   Op = "poll"
)

// Diagnostic records a failure observed during one step of a drain. Ref is
// the zero value when the failure is not tied to a single pod.
type Diagnostic struct {
	Op  Op
	Ref WorkloadRef
	Err error
}

func (d Diagnostic) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("op", string(d.Op))
	if d.Ref != (WorkloadRef{}) {
		if err := enc.AddObject("pod", d.Ref); err != nil {
			return err
		}
	}
	if d.Err != nil {
		enc.AddString("error", d.Err.Error())
	}
	return nil
}

type diagnostics []Diagnostic

func (d diagnostics) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, diag := range d {
		if err := enc.AppendObject(diag); err != nil {
			return err
		}
	}
	return nil
}

// Outcome summarizes a drain attempt against one node. EvictedAll is true
// only when the final observation of the node saw no evictable pods.
type Outcome struct {
	NodeName    string
	EvictedAll  bool
	Stragglers  []WorkloadRef
	Diagnostics []Diagnostic
}

func (o Outcome) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("nodeName", o.NodeName)
	enc.AddBool("evictedAll", o.EvictedAll)
	enc.AddArray("stragglers", workloadRefs(o.Stragglers))
	enc.AddArray("diagnostics", diagnostics(o.Diagnostics))
	return nil
}
