// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// IAMSigner signs bytes as a service account through the IAM Credentials
// API, which lets workloads without a private key produce signed URLs.
type IAMSigner struct {
	client *credentials.IamCredentialsClient
	email  string
}

func NewIAMSigner(client *credentials.IamCredentialsClient, email string) *IAMSigner {
	return &IAMSigner{client: client, email: email}
}

func (s *IAMSigner) Email() string {
	return s.email
}

// SignBytes returns a signing function bound to ctx, in the shape expected
// by storage.SignedURLOptions.
func (s *IAMSigner) SignBytes(ctx context.Context) func([]byte) ([]byte, error) {
	return func(payload []byte) ([]byte, error) {
		resp, err := s.client.SignBlob(ctx, &credentialspb.SignBlobRequest{
			Name:    "projects/-/serviceAccounts/" + s.email,
			Payload: payload,
		})
		if err != nil {
			return nil, model.External("iam sign blob", err, s.email)
		}
		return resp.SignedBlob, nil
	}
}
