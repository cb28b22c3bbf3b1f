// Copyright 2025 Zintix Labs
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


// ops 開發用任務：go run ./scripts <task>
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

type task struct {
	desc string
	run  func() error
}

var tasks = map[string]task{
	"test":        {"go test ./... -cover -count=1 (only ok/FAIL lines)", runTest},
	"test-all":    {"go test ./... -cover", runTestAll},
	"test-detail": {"go test ./... -v -count=1 without [no test files]", runTestDetail},
	"lib":         {"build cmd/libwdm as a c-shared library into build/", runBuildLib},
	"profile":     {"run cmd/run with -p cpu on the biased_drift preset", runProfile},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	name := os.Args[1]
	t, ok := tasks[name]
	if !ok {
		PrintYellow(fmt.Sprintf("Unknown task: %s", name))
		usage()
		os.Exit(1)
	}
	if err := t.run(); err != nil {
		PrintRed(fmt.Sprintf("\n%s finished with errors: %v", name, err))
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(tasks))
	for k := range tasks {
		names = append(names, k)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("Usage: go run ./scripts [task]\n")
	for _, k := range names {
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", k, tasks[k].desc))
	}
	PrintDefault(sb.String())
}
