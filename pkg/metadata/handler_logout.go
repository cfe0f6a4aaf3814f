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
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type logoutHandler struct {
	invalidator SessionInvalidator
}

func newLogoutHandler(invalidator SessionInvalidator) *logoutHandler {
	return &logoutHandler{invalidator: invalidator}
}

func (h *logoutHandler) Install(router *mux.Router) {
	router.Handle("/logout", adapt(withMeter("logout", h))).Methods("POST")
}

func (h *logoutHandler) Handle(ctx context.Context, w http.ResponseWriter, req *http.Request) (int, error) {
	timer := prometheus.NewTimer(handlerTimer.WithLabelValues("logout"))
	defer timer.ObserveDuration()

	if err := h.invalidator.Logout(); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("error logging out: %s", err.Error())
	}

	fmt.Fprint(w, "ok")
	success.WithLabelValues("logout").Inc()
	return http.StatusOK, nil
}
