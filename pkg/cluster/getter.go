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

package cluster

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/eks-node-drainer/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"

	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

type (
	EKSClusterDescriber interface {
		DescribeCluster(context.Context, *eks.DescribeClusterInput, ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	}

	Getter struct {
		EKSClusterDescriber
	}
)

// GetClusterConfig builds an in-memory kubeconfig for the named EKS cluster
// from its API endpoint and certificate authority.
func (g Getter) GetClusterConfig(ctx context.Context, clusterName string) (*clientcmdapi.Config, error) {
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).
		Named("clusterConfig").
		With("clusterName", clusterName))

	result, err := g.DescribeCluster(ctx, &eks.DescribeClusterInput{
		Name: aws.String(clusterName),
	})
	if err != nil {
		logging.FromContext(ctx).
			With("error", err).
			Error("DescribeCluster API call failed")
		return nil, err
	}

	if result.Cluster == nil {
		err = fmt.Errorf("no description for cluster %s", clusterName)
		logging.FromContext(ctx).
			With("error", err).
			Error("EKS cluster not found")
		return nil, err
	}

	endpoint := aws.ToString(result.Cluster.Endpoint)
	if endpoint == "" {
		err = fmt.Errorf("no API endpoint for cluster %s", clusterName)
		logging.FromContext(ctx).
			With("error", err).
			Error("EKS cluster has no API endpoint")
		return nil, err
	}

	certData := ""
	if result.Cluster.CertificateAuthority != nil {
		certData = aws.ToString(result.Cluster.CertificateAuthority.Data)
	}
	if certData == "" {
		err = fmt.Errorf("no certificate authority data for cluster %s", clusterName)
		logging.FromContext(ctx).
			With("error", err).
			Error("EKS cluster has no certificate authority data")
		return nil, err
	}

	caCert, err := base64.StdEncoding.DecodeString(certData)
	if err != nil {
		err = fmt.Errorf("decoding certificate authority data for cluster %s: %w", clusterName, err)
		logging.FromContext(ctx).
			With("error", err).
			Error("EKS cluster certificate authority data is not valid base64")
		return nil, err
	}

	return NewConfig(clusterName, endpoint, caCert), nil
}
