/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package shm

import "github.com/prometheus/client_golang/prometheus"

var (
	regionCreates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atomicfb_region_creates_total",
		Help: "Total number of shared memory regions created.",
	})
	regionAttaches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atomicfb_region_attaches_total",
		Help: "Total number of attaches to existing shared memory regions.",
	})
	regionResets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atomicfb_region_resets_total",
		Help: "Total number of region resets (post-crash recovery zeroing).",
	})
	attachRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atomicfb_region_attach_retries_total",
		Help: "Total number of attach polls that found the region header not ready yet.",
	})
)

func init() {
	prometheus.MustRegister(regionCreates, regionAttaches, regionResets, attachRetries)
}
