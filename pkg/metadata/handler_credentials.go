// Copyright 2023 Outpost Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

const timeLayout = "2006-01-02T15:04:05Z"

// credentialsPayload mirrors the EC2 instance metadata credential document
// so unmodified AWS SDK consumers can read it.
type credentialsPayload struct {
	Code            string
	Type            string
	AccessKeyId     string
	SecretAccessKey string
	Token           string
	Expiration      string
	LastUpdated     string
}

type credentialsHandler struct {
	credentials CredentialsSource
}

func newCredentialsHandler(source CredentialsSource) *credentialsHandler {
	return &credentialsHandler{credentials: source}
}

func (h *credentialsHandler) Install(router *mux.Router) {
	router.Handle("/credentials", adapt(withMeter("credentials", h))).Methods("GET")
}

func (h *credentialsHandler) Handle(ctx context.Context, w http.ResponseWriter, req *http.Request) (int, error) {
	timer := prometheus.NewTimer(handlerTimer.WithLabelValues("credentials"))
	defer timer.ObserveDuration()

	credentials, err := h.credentials.GetValidCredentials(ctx)
	if err != nil {
		credentialFetchError.WithLabelValues("credentials").Inc()
		return http.StatusInternalServerError, fmt.Errorf("error fetching credentials: %s", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(&credentialsPayload{
		Code:            "Success",
		Type:            "AWS-HMAC",
		AccessKeyId:     credentials.AccessKeyId,
		SecretAccessKey: credentials.SecretAccessKey,
		Token:           credentials.SessionToken,
		Expiration:      credentials.Expiration.UTC().Format(timeLayout),
		LastUpdated:     time.Now().UTC().Format(timeLayout),
	})
	if err != nil {
		credentialEncodeError.WithLabelValues("credentials").Inc()
		return http.StatusInternalServerError, fmt.Errorf("error encoding credentials: %s", err.Error())
	}

	success.WithLabelValues("credentials").Inc()
	return http.StatusOK, nil
}
