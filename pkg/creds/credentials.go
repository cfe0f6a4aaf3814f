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

// Package creds holds the temporary credential record, its validity rules
// and the fetch/cache lifecycle around the issuing endpoint.
package creds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Credentials is a temporary credential tuple issued by the remote endpoint.
// A record missing any field is treated as absent.
type Credentials struct {
	AccessKeyId     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

type credentialsPayload struct {
	AccessKeyId     string          `json:"accessKeyId"`
	SecretAccessKey string          `json:"secretAccessKey"`
	SessionToken    string          `json:"sessionToken"`
	Expiration      json.RawMessage `json:"expiration"`
}

// Valid reports whether c can still be used at time now, leaving buffer
// as a safety margin before the actual expiry.
func Valid(c *Credentials, buffer time.Duration, now time.Time) bool {
	if c == nil {
		return false
	}
	if c.AccessKeyId == "" || c.SecretAccessKey == "" || c.SessionToken == "" || c.Expiration.IsZero() {
		return false
	}
	return now.Add(buffer).Before(c.Expiration)
}

// ParseCredentials decodes a JSON credential record, accepting expiration as
// an ISO-8601 string or integer epoch seconds. Incomplete records fail with
// ParseError.
func ParseCredentials(b []byte) (*Credentials, error) {
	var payload credentialsPayload
	decoder := json.NewDecoder(bytes.NewReader(b))
	if err := decoder.Decode(&payload); err != nil {
		return nil, &ParseError{Err: err}
	}

	if payload.AccessKeyId == "" || payload.SecretAccessKey == "" || payload.SessionToken == "" || len(payload.Expiration) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("incomplete credential record")}
	}

	expiry, err := parseExpiration(payload.Expiration)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Credentials{
		AccessKeyId:     payload.AccessKeyId,
		SecretAccessKey: payload.SecretAccessKey,
		SessionToken:    payload.SessionToken,
		Expiration:      expiry,
	}, nil
}

// Encode serialises c for storage. Expiration is written as RFC3339 in UTC.
func Encode(c *Credentials) ([]byte, error) {
	expiry, err := json.Marshal(c.Expiration.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	return json.Marshal(&credentialsPayload{
		AccessKeyId:     c.AccessKeyId,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Expiration:      expiry,
	})
}

func parseExpiration(raw json.RawMessage) (time.Time, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, asString); err == nil {
				return t, nil
			}
		}
		if epoch, err := strconv.ParseInt(asString, 10, 64); err == nil {
			return time.Unix(epoch, 0), nil
		}
		return time.Time{}, fmt.Errorf("unparseable expiration %q", asString)
	}

	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		return time.Unix(epoch, 0), nil
	}

	return time.Time{}, fmt.Errorf("unparseable expiration %s", string(raw))
}

// Fields for structured logging, with secrets elided.
func Fields(c *Credentials) log.Fields {
	return log.Fields{
		"credentials.access.key": c.AccessKeyId,
		"credentials.expiration": c.Expiration.UTC().Format(time.RFC3339),
	}
}
