// Copyright 2025 walteh LLC
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

package patch

// 📋 Queue is an ordered collection of pending operations for exactly one
// target file. Insertion order is preserved but is not the application
// order; the applier re-orders effective operations by original coordinate.
// An empty queue is valid and applies as a no-op.
type Queue struct {
	file string
	ops  []Operation
}

// 🏭 NewQueue creates an empty queue for the given file identifier.
func NewQueue(file string) *Queue {
	return &Queue{file: file}
}

// File returns the target file identifier.
func (q *Queue) File() string { return q.file }

// Add appends operations in enqueue order.
func (q *Queue) Add(ops ...Operation) {
	q.ops = append(q.ops, ops...)
}

// Len returns the number of queued operations.
func (q *Queue) Len() int { return len(q.ops) }

// Ops returns a copy of the queued operations in enqueue order.
func (q *Queue) Ops() []Operation {
	return append([]Operation(nil), q.ops...)
}

// Clone returns an independent snapshot of the queue.
func (q *Queue) Clone() *Queue {
	return &Queue{file: q.file, ops: q.Ops()}
}

// Clear removes all queued operations.
func (q *Queue) Clear() {
	q.ops = nil
}
