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


package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const buildDir = "build"

// libName 依平台決定動態函式庫副檔名
func libName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libwdm.dylib"
	case "windows":
		return "libwdm.dll"
	default:
		return "libwdm.so"
	}
}

// runBuildLib 需要 cgo；輸出 .so 與對應的 .h
func runBuildLib() error {
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(buildDir, libName())
	PrintGreen("building " + out)
	cmd := exec.Command("go", "build", "-buildmode=c-shared", "-o", out, "./cmd/libwdm")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func runProfile() error {
	PrintGreen("profiling cmd/run (cpu)")
	return runFiltered(nil, "go", "run", "./cmd/run", "-preset", "biased_drift", "-n", "2000000", "-worker", "1", "-p", "cpu")
}
