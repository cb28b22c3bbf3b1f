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
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// lineFilter 回傳 false 表示略過該行
type lineFilter func(line string) bool

func cleanTestCache() error {
	cmd := exec.Command("go", "clean", "-testcache")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// runFiltered 執行指令並把 stdout/stderr 合併後逐行上色輸出（等同 2>&1 | grep）。
func runFiltered(keep lineFilter, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		if keep != nil && !keep(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"):
			PrintRed(line)
		default:
			PrintDefault(line)
		}
	}
	if err := sc.Err(); err != nil {
		PrintRed(fmt.Sprintf("scanner error: %v", err))
	}
	return cmd.Wait()
}

func runTest() error {
	PrintGreen("running tests")
	// clean 失敗不中斷
	if err := cleanTestCache(); err != nil {
		PrintRed(err.Error())
	}
	// 編譯錯誤不以 ok/FAIL 開頭，另外保留
	return runFiltered(func(line string) bool {
		return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
			strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
	}, "go", "test", "./...", "-cover", "-count=1")
}

func runTestAll() error {
	PrintGreen("running tests (all with coverage)")
	if err := cleanTestCache(); err != nil {
		return err
	}
	cmd := exec.Command("go", "test", "./...", "-cover")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func runTestDetail() error {
	PrintGreen("running tests (detail)")
	if err := cleanTestCache(); err != nil {
		return err
	}
	return runFiltered(func(line string) bool {
		return !strings.Contains(line, "[no test files]")
	}, "go", "test", "./...", "-v", "-count=1")
}
