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

// Package services contains the business logic between the workflow
// commands and the adapters. This file, `queries.go`, holds the BigQuery SQL
// used to read saved timelines back. The `%s` verb takes the fully qualified
// table name; values are passed as named query parameters.
package services

// Timeline history lookups. The table name is formatted in; video and
// session ids travel as named parameters.
const (
	QryLatestTimeline    = "SELECT * FROM `%s` WHERE video_name = @video_name ORDER BY create_date DESC LIMIT 1"
	QryTimelineBySession = "SELECT * FROM `%s` WHERE session_id = @session_id ORDER BY create_date DESC LIMIT 1"
)
