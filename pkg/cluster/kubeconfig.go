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
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

const (
	authenticatorAPIVersion = "client.authentication.k8s.io/v1alpha1"
	authenticatorCommand    = "aws-iam-authenticator"
)

// NewConfig assembles a kubeconfig for the cluster. The cluster, context, and
// user entries are all keyed by the cluster name, and the user authenticates
// with tokens from aws-iam-authenticator.
func NewConfig(clusterName, endpoint string, caCert []byte) *clientcmdapi.Config {
	config := clientcmdapi.NewConfig()
	config.Clusters[clusterName] = &clientcmdapi.Cluster{
		Server:                   endpoint,
		CertificateAuthorityData: caCert,
	}
	config.Contexts[clusterName] = &clientcmdapi.Context{
		Cluster:  clusterName,
		AuthInfo: clusterName,
	}
	config.AuthInfos[clusterName] = &clientcmdapi.AuthInfo{
		Exec: &clientcmdapi.ExecConfig{
			APIVersion: authenticatorAPIVersion,
			Command:    authenticatorCommand,
			Args:       []string{"token", "-i", clusterName},
		},
	}
	config.CurrentContext = clusterName
	return config
}

// NewClientset creates a Kubernetes client from the kubeconfig's current
// context.
func NewClientset(config *clientcmdapi.Config) (*kubernetes.Clientset, error) {
	restConfig, err := clientcmd.NewNonInteractiveClientConfig(*config, config.CurrentContext, &clientcmd.ConfigOverrides{}, nil).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("creating REST config for context %q: %w", config.CurrentContext, err)
	}
	return kubernetes.NewForConfig(restConfig)
}

// WriteConfig persists the kubeconfig at the file path.
func WriteConfig(config *clientcmdapi.Config, path string) error {
	return clientcmd.WriteToFile(*config, path)
}
