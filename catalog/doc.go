// Copyright 2025 Poiesic Systems
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


// Package catalog supplies the ordered catalog records an index is built from.
//
// A Source yields the full catalog on demand. Implementations:
//   - Static: records held in memory
//   - CSVFile: a CSV file with drug_name and symptoms columns
//   - NewSynthetic: a deterministic generated demo catalog
//
// Tags read from files are canonicalized with NormalizeTag so that
// "Sore Throat" and "sore throat" map to the same token. The ranking core
// itself treats tags as opaque strings.
package catalog
