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


// Package perf 以 runtime/pprof 包住一段執行，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/wdmlab/errs"
)

// DefaultDir pprof 檔案預設寫入路徑
const DefaultDir = "build/profiling"

// Mode 支援的 profile 種類
const (
	ModeNone   = ""
	ModeCPU    = "cpu"
	ModeHeap   = "heap"
	ModeAllocs = "allocs"
)

// RunPProf 依 mode 執行 exe 並寫出 profile 到 DefaultDir。
func RunPProf(exe func() error, mode string) error {
	return RunPProfIn(DefaultDir, exe, mode)
}

// RunPProfIn 同 RunPProf，可指定輸出目錄。未知的 mode 回傳 Warn。
func RunPProfIn(dir string, exe func() error, mode string) error {
	switch mode {
	case ModeNone:
		return exe()
	case ModeCPU:
		return pprofCPU(dir, exe)
	case ModeHeap:
		return pprofAfter(dir, ModeHeap, exe)
	case ModeAllocs:
		return pprofAfter(dir, ModeAllocs, exe)
	default:
		return errs.NewWarn("unknown pprof mode: " + mode + " (want cpu|heap|allocs)")
	}
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create pprof dir")
	}
	f, err := os.Create(filepath.Join(dir, name+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name+".pprof")
	}
	return f, nil
}

func pprofCPU(dir string, exe func() error) error {
	f, err := create(dir, ModeCPU)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// pprofAfter 先執行 exe 再拍快照；heap 前先 GC 讓快照貼近最新狀態。
// allocs 為累積配置，需搭配 -alloc_space / -alloc_objects 查看。
func pprofAfter(dir, mode string, exe func() error) error {
	if err := exe(); err != nil {
		return err
	}
	if mode == ModeHeap {
		runtime.GC()
	}
	f, err := create(dir, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	prof := pprof.Lookup(mode)
	if prof == nil {
		return errs.NewFatal("pprof profile not found: " + mode)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+mode+" profile")
	}
	return nil
}
