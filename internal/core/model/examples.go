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

// Package model holds the domain types shared across the service. This file
// provides the few-shot example rendered into the segmentation prompt.
package model

// GetExampleSegmentation is the few-shot answer shown to the vision model:
// a ten second clip with dialogue at either end.
func GetExampleSegmentation() []RawInterval {
	return []RawInterval{
		{Start: "00:00:00.00", End: "00:00:02.50", Type: TalkingSentinel},
		{Start: "00:00:02.50", End: "00:00:07.00", Type: NoTalkingSentinel},
		{Start: "00:00:07.00", End: "00:00:10.00", Type: TalkingSentinel},
	}
}
